package wavy

import (
	"bufio"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"net/http"

	"wavyserver/internal/platform/metrics"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Session is one accepted connection's HANDSHAKE→READ→DISPATCH→WRITE→SHUTDOWN
// run (§4.4). It owns the connection for its entire life and is driven
// start-to-finish on a single goroutine (§5, §9 session-lifetime resolution):
// there is nothing else holding a reference to it, so there is no refcount to
// maintain.
type Session struct {
	conn   *tls.Conn
	peer   string
	cfg    *Config
	router *Router
	log    *slog.Logger
	met    *metrics.Metrics
}

// NewSession wraps an already-accepted raw connection in TLS using tlsCfg.
func NewSession(raw net.Conn, tlsCfg *tls.Config, cfg *Config, router *Router, log *slog.Logger, met *metrics.Metrics) *Session {
	return &Session{
		conn:   tls.Server(raw, tlsCfg),
		peer:   raw.RemoteAddr().String(),
		cfg:    cfg,
		router: router,
		log:    log,
		met:    met,
	}
}

// Run drives the session through every state to completion. It never
// panics out to the caller: any unexpected failure is logged and the
// connection is closed as if it had reached SHUTDOWN normally.
func (s *Session) Run() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("session panic recovered", slog.Any("recover", r), slog.String("peer", s.peer))
		}
	}()
	defer s.shutdown()

	if err := s.handshake(); err != nil {
		s.log.Warn("tls handshake failed", slog.String("peer", s.peer), slog.String("error", err.Error()))
		s.met.IncHandshakeFailures()
		return
	}

	req, body, err := s.parseRequest()
	if err == errBodyTooLarge {
		s.log.Warn("request body exceeded ceiling",
			slog.String("peer", s.peer),
			slog.String("ceiling", humanize.Bytes(uint64(s.cfg.BodyCeiling))),
		)
		resp := textResponse(http.StatusRequestEntityTooLarge, "request body exceeds ceiling")
		s.met.RecordStatus(resp.Status)
		s.write(resp)
		return
	}
	if err != nil {
		s.log.Warn("request read failed", slog.String("peer", s.peer), slog.String("error", err.Error()))
		return
	}

	resp := s.router.Dispatch(s.peer, req, body)
	s.met.RecordStatus(resp.Status)
	s.write(resp)
}

func (s *Session) handshake() error {
	if tcp, ok := s.conn.NetConn().(*net.TCPConn); ok {
		_ = tcp.SetKeepAlive(true)
	}
	return s.conn.Handshake()
}

// errBodyTooLarge signals that a request body exceeded the configured
// ceiling (§4.4 READ); Run maps it directly to a 413 without ever reaching
// DISPATCH.
var errBodyTooLarge = errors.New("request body exceeds configured ceiling")

// parseRequest reads one HTTP/1.1 request off the session's connection using
// the standard library's request parser, then enforces the configured body
// ceiling while buffering the body for the router.
func (s *Session) parseRequest() (*http.Request, []byte, error) {
	reader := bufio.NewReader(s.conn)
	req, err := http.ReadRequest(reader)
	if err != nil {
		return nil, nil, err
	}
	defer req.Body.Close()

	limited := io.LimitReader(req.Body, s.cfg.BodyCeiling+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, nil, err
	}
	if int64(len(body)) > s.cfg.BodyCeiling {
		return req, nil, errBodyTooLarge
	}

	return req, body, nil
}

func (s *Session) write(resp *Response) {
	w := bufio.NewWriter(s.conn)
	if err := resp.WriteTo(w); err != nil {
		s.log.Warn("response write failed", slog.String("peer", s.peer), slog.String("error", err.Error()))
	}
}

// shutdown always attempts a TLS close_notify and closes the underlying
// socket, regardless of how Run got here (§4.4 SHUTDOWN).
func (s *Session) shutdown() {
	if err := s.conn.Close(); err != nil {
		s.log.Debug("shutdown close failed", slog.String("peer", s.peer), slog.String("error", err.Error()))
	}
}
