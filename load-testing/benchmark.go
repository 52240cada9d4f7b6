package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"

	api "logstore/internal/platform/api/zmq"
	"logstore/internal/platform/logging"
)

var errTimeout = errors.New("request timeout")

type ZmqClient struct {
	socket  zmq4.Socket
	timeout time.Duration
}

func NewZmqClient(ctx context.Context, address string, timeout time.Duration) (*ZmqClient, error) {
	socket := zmq4.NewReq(ctx)
	if err := socket.Dial(address); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return &ZmqClient{
		socket:  socket,
		timeout: timeout,
	}, nil
}

func (c *ZmqClient) SendRequest(req api.ApiRequest) (api.ApiResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return api.ApiResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := c.socket.Send(zmq4.NewMsg(payload)); err != nil {
		return api.ApiResponse{}, fmt.Errorf("failed to send request: %w", err)
	}

	type reply struct {
		msg zmq4.Msg
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		msg, err := c.socket.Recv()
		ch <- reply{msg, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return api.ApiResponse{}, r.err
		}
		var resp api.ApiResponse
		if err := json.Unmarshal(r.msg.Bytes(), &resp); err != nil {
			return api.ApiResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		return resp, nil
	case <-time.After(c.timeout):
		return api.ApiResponse{}, errTimeout
	}
}

func (c *ZmqClient) Close() error {
	return c.socket.Close()
}

// worker issues random requests until deadline. A REQ socket cannot be reused
// after a timeout, so the worker stops on the first one.
func worker(ctx context.Context, id int, address string, timeout time.Duration, deadline time.Time,
	keySpace int, stats *Stats, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := logging.New("info")

	client, err := NewZmqClient(ctx, address, timeout)
	if err != nil {
		logger.Error().Err(err).Int("worker", id).Msg("failed to create client")
		return
	}
	defer client.Close()

	actions := []string{api.SAVE, api.GET, api.DELETE}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	for time.Now().Before(deadline) && ctx.Err() == nil {
		req := api.ApiRequest{
			Action: actions[rnd.Intn(len(actions))],
			Key:    fmt.Sprintf("key_%d", rnd.Intn(keySpace)),
			Value:  fmt.Sprintf("value_%d_%d", id, rnd.Intn(1000)),
		}

		start := time.Now()
		resp, err := client.SendRequest(req)
		stats.Add(Result{
			Duration: time.Since(start),
			Success:  err == nil && resp.Success,
			TimedOut: errors.Is(err, errTimeout),
			Failed:   err != nil,
		})
		if errors.Is(err, errTimeout) {
			logger.Warn().Int("worker", id).Msg("request timed out, stopping worker")
			return
		}
	}
}

func printResults(s Snapshot) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("BENCHMARK RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Duration: %v\n", s.Elapsed)
	fmt.Printf("Total Requests: %d\n", s.Total)
	fmt.Printf("Successful Requests: %d\n", s.Successful)
	fmt.Printf("Unsuccessful Replies: %d\n", s.Total-s.Successful-s.Failed)
	fmt.Printf("Failed Requests: %d\n", s.Failed)
	fmt.Printf("Timeout Requests: %d\n", s.TimedOut)
	fmt.Printf("RPS: %.2f\n", s.RPS())

	fmt.Println("\nRESPONSE TIME PERCENTILES:")
	for _, p := range []float64{0.50, 0.90, 0.95, 0.99, 0.999} {
		fmt.Printf("p%g: %v\n", p*100, s.Percentile(p))
	}
	fmt.Println(strings.Repeat("=", 60))
}

func main() {
	var (
		address  = flag.String("address", "tcp://127.0.0.1:5555", "ZMQ API address")
		workers  = flag.Int("workers", 10, "Number of concurrent clients")
		duration = flag.Duration("duration", 30*time.Second, "Test duration")
		timeout  = flag.Duration("timeout", 5*time.Second, "Request timeout")
		keySpace = flag.Int("keys", 1000, "Number of distinct keys")
	)
	flag.Parse()
	if *workers <= 0 || *keySpace <= 0 {
		fmt.Fprintln(os.Stderr, "workers and keys must be positive")
		os.Exit(1)
	}

	fmt.Printf("Starting benchmark with %d workers for %v against %s\n", *workers, *duration, *address)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := NewStats()
	deadline := time.Now().Add(*duration)
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go worker(ctx, i, *address, *timeout, deadline, *keySpace, stats, &wg)
	}
	wg.Wait()

	printResults(stats.Snapshot())
}
