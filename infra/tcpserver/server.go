// Package tcpserver serves the hub's reliable channel: one TCP connection
// per courier or customer session, newline-delimited protocol records.
package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/swiftdrop/hub/core/dispatch"
	"github.com/swiftdrop/hub/core/ledger"
	"github.com/swiftdrop/hub/core/registry"
	"github.com/swiftdrop/hub/infra/logger"
)

// Server accepts sessions and routes their records into the hub components.
type Server struct {
	addr  string
	reg   *registry.Registry
	queue *dispatch.Queue
	led   *ledger.Ledger
	log   logger.Logger

	ln net.Listener
	wg sync.WaitGroup
}

// New creates a Server. Start must be called before Serve.
func New(addr string, reg *registry.Registry, queue *dispatch.Queue, led *ledger.Ledger, log logger.Logger) *Server {
	return &Server{addr: addr, reg: reg, queue: queue, led: led, log: log}
}

// Start binds the listener. A bind failure is fatal to startup; it is the
// only error in this package that should abort the host process.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tcpserver: bind %s: %w", s.addr, err)
	}
	s.ln = ln
	s.log.Infof("listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound listener address. Useful with ":0" in tests.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until the context is canceled. Per-connection
// failures never stop the accept loop; serving remaining clients takes
// priority over failing fast.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return fmt.Errorf("tcpserver: Serve before Start")
	}
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.log.Errorf("accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}
