package wavy

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"wavyserver/internal/platform/metrics"

	"github.com/pkg/errors"
)

// Acceptor owns the listening socket and spawns one Session per accepted
// connection (§4.6). It is re-armed immediately after each spawn; the loop
// only stops when the listener is closed.
type Acceptor struct {
	listener net.Listener
	tlsCfg   *tls.Config
	cfg      *Config
	router   *Router
	log      *slog.Logger
	met      *metrics.Metrics
	closing  atomic.Bool
}

// NewAcceptor binds a TCP listener on cfg.Port (v4-any) and returns an
// Acceptor ready for ListenAndServe.
func NewAcceptor(cfg *Config, tlsCfg *tls.Config, router *Router, log *slog.Logger, met *metrics.Metrics) (*Acceptor, error) {
	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, errors.Wrapf(err, "listen on port %d", cfg.Port)
	}
	return &Acceptor{
		listener: ln,
		tlsCfg:   tlsCfg,
		cfg:      cfg,
		router:   router,
		log:      log,
		met:      met,
	}, nil
}

// ListenAndServe accepts connections until the listener is closed, spawning
// one goroutine per session. It returns nil once Close has been called.
func (a *Acceptor) ListenAndServe() error {
	a.log.Info("accepting connections", slog.String("addr", a.listener.Addr().String()))

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if a.closing.Load() {
				return nil
			}
			a.log.Warn("accept failed", slog.String("error", err.Error()))
			continue
		}

		go a.serve(conn)
	}
}

func (a *Acceptor) serve(conn net.Conn) {
	a.met.SessionStarted()
	defer a.met.SessionEnded()

	sess := NewSession(conn, a.tlsCfg, a.cfg, a.router, a.log, a.met)
	sess.Run()
}

// Close stops the accept loop and releases the listening socket.
func (a *Acceptor) Close() error {
	a.closing.Store(true)
	return a.listener.Close()
}
