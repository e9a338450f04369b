// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/bassosimone/safeconn"
)

// State is the protocol state of a [*Session].
type State int

const (
	// StateDisconnected means there is no connection.
	StateDisconnected State = iota

	// StateConnected means the greeting has been received.
	StateConnected

	// StateAuthenticated means the client may read and post.
	StateAuthenticated

	// StateGroupSelected means a newsgroup is selected.
	StateGroupSelected
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateGroupSelected:
		return "group-selected"
	default:
		return "unknown"
	}
}

// Session is the client side of one NNTP conversation.
//
// A session owns its [*Transport], the selected [GroupInfo] and the
// [OverviewCatalog] of the connection. Commands run one at a time: a
// [*Session] must not be used concurrently.
//
// Construct using [NewSession].
type Session struct {
	banner         string
	catalog        OverviewCatalog
	cfg            *Config
	framer         *ResponseFramer
	group          GroupInfo
	logger         SLogger
	postingAllowed bool
	spanID         string
	state          State
	transport      *Transport
}

// NewSession returns a disconnected [*Session].
//
// The cfg argument contains the common configuration for nntp operations.
//
// The logger argument is the [SLogger] to use for structured logging; the
// session adds a spanID attribute to each event.
func NewSession(cfg *Config, logger SLogger) *Session {
	spanID := NewSpanID()
	return &Session{
		cfg:    cfg,
		logger: withSpanID(logger, spanID),
		spanID: spanID,
		state:  StateDisconnected,
	}
}

// SpanID returns the span ID attached to the events of this session.
func (s *Session) SpanID() string {
	return s.spanID
}

// State returns the current protocol state.
func (s *Session) State() State {
	return s.state
}

// PostingAllowed returns whether the greeting allowed posting.
func (s *Session) PostingAllowed() bool {
	return s.postingAllowed
}

// Banner returns the text of the server greeting.
func (s *Session) Banner() string {
	return s.banner
}

// SelectedGroup returns the information about the selected group, if any.
func (s *Session) SelectedGroup() (GroupInfo, bool) {
	return s.group, s.state == StateGroupSelected
}

// Connect dials the endpoint, reads the greeting and moves to [StateConnected].
//
// The greeting code decides [Session.PostingAllowed]: 200 allows posting, 201
// forbids it, anything else is a [*ProtocolError] and closes the connection.
func (s *Session) Connect(ctx context.Context, endpoint Endpoint) error {
	if s.state != StateDisconnected {
		return &StateError{Required: StateDisconnected, Actual: s.state}
	}
	if endpoint.Port == 0 {
		endpoint = NewEndpoint(endpoint.Host, 0, endpoint.TLS)
	}
	if err := endpoint.Validate(); err != nil {
		return err
	}

	transport, err := s.dial(ctx, endpoint)
	if err != nil {
		return newConnectionError(ctx, "connect", err)
	}
	s.transport = transport
	s.framer = NewResponseFramer(s.cfg, transport)

	status, _, err := s.roundTrip(ctx, exchange{expected: StatusPostingAllowed})
	switch {
	case err == nil:
		s.postingAllowed = true
	case StatusCode(err) == StatusPostingProhibited:
		s.postingAllowed = false
	default:
		s.drop()
		return err
	}
	s.banner = status.Text
	s.state = StateConnected
	return nil
}

func (s *Session) dial(ctx context.Context, endpoint Endpoint) (*Transport, error) {
	connect := NewConnectFunc(s.cfg, s.logger)
	if !endpoint.TLS {
		pipeline := Compose3(
			NewEndpointFunc(endpoint),
			connect,
			NewTransportFunc[net.Conn](s.cfg, s.logger),
		)
		return pipeline.Call(ctx, Unit{})
	}
	pipeline := Compose4(
		NewEndpointFunc(endpoint),
		connect,
		NewTLSHandshakeFunc(s.cfg, s.tlsConfig(endpoint), s.logger),
		NewTransportFunc[TLSConn](s.cfg, s.logger),
	)
	return pipeline.Call(ctx, Unit{})
}

func (s *Session) tlsConfig(endpoint Endpoint) *tls.Config {
	config := &tls.Config{}
	if s.cfg.TLSConfig != nil {
		config = s.cfg.TLSConfig.Clone()
	}
	if config.ServerName == "" {
		config.ServerName = endpoint.Host
	}
	return config
}

// Login authenticates with AUTHINFO USER and AUTHINFO PASS and moves to
// [StateAuthenticated]. The session must be in [StateConnected].
//
// A server accepting the user without a password is honored. On a
// [*ProtocolError] the state is unchanged and the caller may retry.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if s.state != StateConnected {
		return &StateError{Required: StateConnected, Actual: s.state}
	}
	if !validArgument(username) || !validArgument(password) {
		return ErrInvalidArgument
	}
	_, _, err := s.roundTrip(ctx, newExchange("AUTHINFO USER "+username, StatusPasswordRequired))
	switch {
	case StatusCode(err) == StatusAuthAccepted:
		s.state = StateAuthenticated
		return nil
	case err != nil:
		return err
	}
	ex := newExchange("AUTHINFO PASS "+password, StatusAuthAccepted)
	ex.command = "AUTHINFO PASS [redacted]"
	if _, _, err := s.roundTrip(ctx, ex); err != nil {
		return err
	}
	s.state = StateAuthenticated
	return nil
}

// ModeReader sends MODE READER and moves to [StateAuthenticated]. Use it
// instead of [Session.Login] with servers granting access without credentials.
//
// The session must be in [StateConnected].
func (s *Session) ModeReader(ctx context.Context) error {
	if s.state != StateConnected {
		return &StateError{Required: StateConnected, Actual: s.state}
	}
	_, _, err := s.roundTrip(ctx, newExchange("MODE READER", StatusPostingAllowed))
	if err != nil && StatusCode(err) != StatusPostingProhibited {
		return err
	}
	s.state = StateAuthenticated
	return nil
}

// Command sends a single command line and reads a single-line response
// with the expected code. It requires [StateConnected] or later and does
// not change the session state.
func (s *Session) Command(ctx context.Context, command string, expected int) (StatusLine, error) {
	if err := s.require(StateConnected); err != nil {
		return StatusLine{}, err
	}
	if !validArgument(command) || command == "" {
		return StatusLine{}, ErrInvalidArgument
	}
	status, _, err := s.roundTrip(ctx, newExchange(command, expected))
	return status, err
}

// CommandBlock is like [Session.Command] but reads a dot-terminated block.
func (s *Session) CommandBlock(ctx context.Context, command string, expected int) (StatusLine, []string, error) {
	if err := s.require(StateConnected); err != nil {
		return StatusLine{}, nil, err
	}
	if !validArgument(command) || command == "" {
		return StatusLine{}, nil, ErrInvalidArgument
	}
	return s.roundTrip(ctx, newBlockExchange(command, expected))
}

// Disconnect sends QUIT, reads the reply on a best-effort basis, closes the
// transport and resets the session to [StateDisconnected].
//
// Disconnect never fails: the connection is being torn down regardless. It
// is safe to call in any state.
func (s *Session) Disconnect(ctx context.Context) {
	if s.transport != nil && s.transport.IsOpen() {
		s.roundTrip(ctx, newExchange("QUIT", StatusClosingConnection))
	}
	s.drop()
}

// require checks that the session has reached at least the given state.
func (s *Session) require(state State) error {
	if s.state < state {
		return &StateError{Required: state, Actual: s.state}
	}
	return nil
}

// drop closes the transport and forgets all per-connection state.
func (s *Session) drop() {
	if s.transport != nil {
		s.transport.Close()
	}
	s.banner = ""
	s.catalog = OverviewCatalog{}
	s.framer = nil
	s.group = GroupInfo{}
	s.postingAllowed = false
	s.state = StateDisconnected
	s.transport = nil
}

// exchange describes one request/response round trip.
type exchange struct {
	// command is the command as logged.
	command string

	// wire is sent before reading. Nil means read only (e.g., the greeting).
	wire []byte

	// expected is the expected status code.
	expected int

	// block means a dot-terminated block follows a successful status line.
	block bool
}

func newExchange(command string, expected int) exchange {
	return exchange{command: command, wire: []byte(command + "\r\n"), expected: expected}
}

func newBlockExchange(command string, expected int) exchange {
	ex := newExchange(command, expected)
	ex.block = true
	return ex
}

// roundTrip runs the exchange. A [*ConnectionError] or an overlong line
// drops the connection. A [*ProtocolError] leaves it usable.
func (s *Session) roundTrip(ctx context.Context, ex exchange) (StatusLine, []string, error) {
	if s.transport == nil || s.framer == nil {
		return StatusLine{}, nil, &ConnectionError{Op: "send", Err: ErrTransportClosed}
	}

	t0 := s.cfg.TimeNow()
	deadline, _ := ctx.Deadline()
	s.logExchangeStart(ex, t0, deadline)

	status, lines, err := s.doRoundTrip(ctx, ex)

	s.logExchangeDone(ex, t0, deadline, status, len(lines), err)

	var connErr *ConnectionError
	if errors.As(err, &connErr) || errors.Is(err, ErrLineTooLong) {
		s.drop()
	}
	return status, lines, err
}

func (s *Session) doRoundTrip(ctx context.Context, ex exchange) (StatusLine, []string, error) {
	if ex.wire != nil {
		if err := s.transport.Send(ctx, ex.wire); err != nil {
			return StatusLine{}, nil, err
		}
	}
	if ex.block {
		return s.framer.ReadBlock(ctx, ex.expected)
	}
	status, err := s.framer.ReadStatusLine(ctx, ex.expected)
	return status, nil, err
}

func (s *Session) logExchangeStart(ex exchange, t0 time.Time, deadline time.Time) {
	conn := s.transport.Conn()
	s.logger.Info(
		"nntpExchangeStart",
		slog.Time("deadline", deadline),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("nntpCommand", ex.command),
		slog.Int("nntpExpectedCode", ex.expected),
		slog.String("protocol", safeconn.Network(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.Time("t", t0),
	)
}

func (s *Session) logExchangeDone(ex exchange,
	t0 time.Time, deadline time.Time, status StatusLine, lines int, err error) {
	conn := s.transport.Conn()
	s.logger.Info(
		"nntpExchangeDone",
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", s.cfg.ErrClassifier.Classify(err)),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.Int("nntpBlockLines", lines),
		slog.String("nntpCommand", ex.command),
		slog.Int("nntpExpectedCode", ex.expected),
		slog.Int("nntpStatusCode", status.Code),
		slog.String("nntpStatusText", status.Text),
		slog.String("protocol", safeconn.Network(conn)),
		slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		slog.Time("t0", t0),
		slog.Time("t", s.cfg.TimeNow()),
	)
}

// validArgument reports whether value can be embedded in a command line.
func validArgument(value string) bool {
	return !strings.ContainsAny(value, "\r\n")
}
