package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/phuslu/log"
	"go.uber.org/dig"

	"logstore/internal/application/service"
	"logstore/internal/domain"
	"logstore/internal/platform/api/zmq"
	"logstore/internal/platform/config"
	"logstore/internal/platform/logging"
	"logstore/internal/platform/repository"
	"logstore/internal/platform/repository/logstore"
	"logstore/internal/platform/server"
	"logstore/internal/platform/server/handler/dbentry"
	"logstore/internal/platform/server/tcp"
)

func Run() (bool, error) {
	container, err := buildContainer()
	if err != nil {
		return false, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = container.Invoke(func(cfg config.Config, logger *log.Logger, repo domain.DbEntryRepository,
		textServer *tcp.Server, httpServer *server.Server, zmqApi *zmq.ZmqApi) error {
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Error().Err(err).Msg("close store failed")
			}
		}()
		return serve(ctx, stop, logger,
			textServer.Serve,
			httpServer.Run,
			zmqApi.Listen)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func buildContainer() (*dig.Container, error) {
	container := dig.New()
	serviceConstructors := []interface{}{
		config.LoadConfig,
		logger,
		engine,
		service.NewDeleteEntryService,
		service.NewSaveEntryService,
		service.NewGetEntryService,
		dbentry.NewDbEntryHandler,
		server.NewServer,
		tcp.NewServer,
		zmq.NewZmqApi,
	}
	for _, service := range serviceConstructors {
		if err := container.Provide(service); err != nil {
			return nil, err
		}
	}
	if err := container.Provide(repository.NewLogRepository, dig.As(new(domain.DbEntryRepository))); err != nil {
		return nil, err
	}
	return container, nil
}

// serve runs every front end until one fails or ctx is cancelled, then stops
// the rest and waits for them.
func serve(ctx context.Context, stop context.CancelFunc, logger *log.Logger, runners ...func(context.Context) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, run := range runners {
		wg.Add(1)
		go func(run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil {
				logger.Error().Err(err).Msg("front end stopped")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				stop()
			}
		}(run)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func logger(cfg config.Config) *log.Logger {
	return logging.New(cfg.LogLevel)
}

func engine(cfg config.Config, logger *log.Logger) (*logstore.Engine, error) {
	if cfg.CreateDb {
		fd, err := os.OpenFile(cfg.DbPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", cfg.DbPath, err)
		}
		fd.Close()
	}
	return logstore.OpenWithOptions(cfg.DbPath, logstore.Options{
		Logger:   logger,
		Snapshot: cfg.IndexSnapshot,
	})
}
