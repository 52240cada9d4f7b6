package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"logstore/internal/application/service"
	"logstore/internal/domain"
	"logstore/internal/platform/config"
	"logstore/internal/platform/protocol"
)

// MaxLineSize bounds a single command line, value included.
const MaxLineSize = 16 << 20

// Server speaks the text protocol: one command per line, one reply line per
// command. Connections stay open after failed commands.
type Server struct {
	addr     string
	get      *service.GetEntryService
	save     *service.SaveEntryService
	delete   *service.DeleteEntryService
	logger   *log.Logger
	listener net.Listener

	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

func NewServer(cfg config.Config, get *service.GetEntryService, save *service.SaveEntryService,
	delete *service.DeleteEntryService, logger *log.Logger) *Server {
	return &Server{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.TcpPort),
		get:    get,
		save:   save,
		delete: delete,
		logger: logger,
		conns:  make(map[string]net.Conn),
	}
}

// Listen binds the listening socket. Serve calls it when it has not been
// called yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr is the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes every open
// connection and waits for their handlers to return.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("text protocol server listening")

	go func() {
		<-ctx.Done()
		s.listener.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.logger.Error().Err(err).Msg("failed to accept connection")
			continue
		}

		id := uuid.NewString()
		if !s.track(ctx, id, conn) {
			conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(id)
			s.handleConn(id, conn)
		}()
	}
}

// track registers conn for shutdown. It refuses once ctx is done, since the
// close-all pass may already have run.
func (s *Server) track(ctx context.Context, id string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	s.conns[id] = conn
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conns[id]; ok {
		c.Close()
		delete(s.conns, id)
	}
}

func (s *Server) handleConn(id string, conn net.Conn) {
	s.logger.Debug().Str("conn", id).Str("remote", conn.RemoteAddr().String()).Msg("connection opened")
	defer s.logger.Debug().Str("conn", id).Msg("connection closed")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)
	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		reply, ok := s.Handle(scanner.Text())
		if !ok {
			continue
		}
		if _, err := w.WriteString(reply + "\n"); err != nil {
			s.logger.Warn().Err(err).Str("conn", id).Msg("write reply failed")
			return
		}
		if err := w.Flush(); err != nil {
			s.logger.Warn().Err(err).Str("conn", id).Msg("write reply failed")
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn().Err(err).Str("conn", id).Msg("read command failed")
	}
}

// Handle executes one protocol line and returns its reply. ok is false for
// blank lines, which get no reply.
func (s *Server) Handle(line string) (reply string, ok bool) {
	cmd, err := protocol.Parse(line)
	switch {
	case errors.Is(err, protocol.ErrEmptyLine):
		return "", false
	case errors.Is(err, protocol.ErrInvalidCommand):
		return protocol.ReplyInvalidCommand, true
	case err != nil:
		return protocol.ErrorReply(err), true
	}

	switch cmd.Verb {
	case protocol.GET:
		result := s.get.Execute(service.GetEntryQuery{Key: cmd.Key})
		if result.Err != nil {
			return s.failure(cmd, result.Err), true
		}
		return escapeLineBreaks(result.Entry.Value()), true
	case protocol.PUT:
		result := s.save.Execute(service.SaveEntryCommand{Key: cmd.Key, Value: cmd.Value})
		if result.Err != nil {
			return s.failure(cmd, result.Err), true
		}
		return protocol.ReplyOK, true
	case protocol.DELETE:
		result := s.delete.Execute(service.DeleteEntryCommand{Key: cmd.Key})
		if result.Err != nil {
			return s.failure(cmd, result.Err), true
		}
		return protocol.ReplyOK, true
	}
	return protocol.ReplyInvalidCommand, true
}

func (s *Server) failure(cmd protocol.Command, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return protocol.ReplyNotFound
	case errors.Is(err, domain.ErrInvalidData):
		return protocol.ErrorReply(err)
	}
	s.logger.Error().Err(err).Str("verb", string(cmd.Verb)).Str("key", cmd.Key).Msg("command failed")
	return protocol.ErrorReply(err)
}

var lineBreakEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// escapeLineBreaks keeps a reply on one line. Values written over HTTP or
// ZeroMQ may contain line breaks; they come back as the two-character
// sequences \r and \n.
func escapeLineBreaks(value string) string {
	return lineBreakEscaper.Replace(value)
}
