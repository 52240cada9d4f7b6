package zmq

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-zeromq/zmq4"
	json "github.com/json-iterator/go"
	"github.com/phuslu/log"

	"logstore/internal/application/service"
	"logstore/internal/domain"
	"logstore/internal/platform/config"
)

const (
	SAVE   = "SAVE"
	GET    = "GET"
	DELETE = "DELETE"
)

// ZmqApi answers JSON requests on a REP socket. REP handles one request at a
// time, which matches the single engine behind it.
type ZmqApi struct {
	socket   zmq4.Socket
	address  string
	services *Services
	logger   *log.Logger
}

type Services struct {
	get    *service.GetEntryService
	set    *service.SaveEntryService
	delete *service.DeleteEntryService
}

func NewZmqApi(get *service.GetEntryService, set *service.SaveEntryService,
	delete *service.DeleteEntryService, conf config.Config, logger *log.Logger) *ZmqApi {
	return &ZmqApi{
		address: fmt.Sprintf("tcp://%s:%d", conf.Host, conf.ZmqApiPort),
		services: &Services{
			get:    get,
			set:    set,
			delete: delete,
		},
		logger: logger,
	}
}

// Listen serves requests until ctx is cancelled.
func (z *ZmqApi) Listen(ctx context.Context) error {
	z.socket = zmq4.NewRep(ctx)
	if err := z.socket.Listen(z.address); err != nil {
		z.socket.Close()
		return fmt.Errorf("listen on %s: %w", z.address, err)
	}
	go func() {
		<-ctx.Done()
		z.socket.Close()
	}()
	z.logger.Info().Str("addr", z.address).Msg("zmq api listening")

	for {
		msg, err := z.socket.Recv()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, zmq4.ErrClosedConn) {
				z.logger.Info().Msg("zmq api shut down")
				return nil
			}
			z.logger.Warn().Err(err).Msg("zmq recv failed")
			continue
		}

		var response ApiResponse
		var req ApiRequest
		if err := json.Unmarshal(msg.Bytes(), &req); err != nil {
			z.logger.Warn().Err(err).Msg("zmq request is not valid json")
			response = ApiResponse{Error: "invalid request: " + err.Error()}
		} else {
			response = z.processRequest(&req)
		}

		if err := z.socket.Send(z.marshal(response)); err != nil {
			z.logger.Warn().Err(err).Msg("zmq send failed")
		}
	}
}

func (z *ZmqApi) processRequest(req *ApiRequest) ApiResponse {
	switch req.Action {
	case SAVE:
		result := z.services.set.Execute(service.SaveEntryCommand{
			Key:   req.Key,
			Value: req.Value,
		})
		return toResponse(result.Entry, result.Err)

	case GET:
		result := z.services.get.Execute(service.GetEntryQuery{Key: req.Key})
		return toResponse(result.Entry, result.Err)

	case DELETE:
		result := z.services.delete.Execute(service.DeleteEntryCommand{Key: req.Key})
		return toResponse(result.Entry, result.Err)

	default:
		z.logger.Warn().Str("action", req.Action).Msg("unknown zmq action")
		return ApiResponse{Error: "unknown action " + req.Action}
	}
}

func toResponse(entry domain.DbEntry, err error) ApiResponse {
	if err != nil {
		return ApiResponse{Error: err.Error()}
	}
	return ApiResponse{
		Entry: EntryResponse{
			Key:       entry.Key(),
			Value:     entry.Value(),
			Tombstone: entry.Tombstone(),
		},
		Success: true,
	}
}

func (z *ZmqApi) marshal(response ApiResponse) zmq4.Msg {
	payload, err := json.Marshal(response)
	if err != nil {
		z.logger.Error().Err(err).Msg("marshal zmq response")
		payload = []byte(`{"success":false}`)
	}
	return zmq4.NewMsg(payload)
}
