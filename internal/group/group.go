// Package group implements the bot group and its event loop: a
// selector-style reactor re-expressed with Go's concurrency primitives.
// One goroutine — the reactor — owns every handshake and state-machine
// transition for every bot in the group, keeping that mutation on a
// single thread; per-bot reader and writer goroutines only move bytes and
// never run the login codec. The one exception to the single owner is
// closing: a writer that hits a socket error, and Remove/Close on the
// caller's goroutine, close the bot, which marks it LOGGED_OUT.
package group

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rs317/botswarm/internal/boterrors"
	"github.com/rs317/botswarm/internal/botconn"
	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/config"
	"github.com/rs317/botswarm/internal/gamecodec"
	"github.com/rs317/botswarm/internal/logincodec"
	"github.com/rs317/botswarm/internal/message"
	"github.com/rs317/botswarm/internal/rsakey"
)

// keepAliveOpcode is the fixed, zero-length frame sent on KeepAliveInterval.
const keepAliveOpcode = 0

// MessageHandler receives every decoded post-login game message. The
// default handler drops messages.
type MessageHandler func(username string, msg *message.Message)

// ExceptionHandler receives every error surfaced for a bot: IoError,
// LoginRejected, ProtocolError, or (with an empty username) FatalLoopError.
type ExceptionHandler func(username string, err error)

type connectEvent struct {
	conn *botconn.Conn
	err  error
}

type inboundEvent struct {
	conn *botconn.Conn
	data []byte
	err  error
}

// Group is a named cluster of bots sharing a connect address and a set
// of codec strategies, driven by one lazily-started reactor goroutine.
type Group struct {
	cfg    config.Group
	rsaKey *rsa.PublicKey
	codec  *logincodec.Codec

	handler     MessageHandler
	onException ExceptionHandler
	logger      *slog.Logger

	bots        sync.Map // username -> *botconn.Conn
	activeCount atomic.Int64

	mu       sync.Mutex
	running  bool
	disabled bool
	cancel   context.CancelFunc
	eg       *errgroup.Group

	connected chan connectEvent
	inbox     chan inboundEvent
	removed   chan string
}

// Option configures a Group at construction time.
type Option func(*Group)

// WithMessageHandler sets the callback invoked for every decoded
// post-login game message. The default handler drops messages.
func WithMessageHandler(h MessageHandler) Option {
	return func(g *Group) { g.handler = h }
}

// WithExceptionHandler sets the callback invoked for every error a bot
// hits. The default handler only logs.
func WithExceptionHandler(h ExceptionHandler) Option {
	return func(g *Group) { g.onException = h }
}

// WithLogger overrides the group's logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Group) { g.logger = l }
}

// New validates cfg and constructs a Group. An invalid configuration — a
// bad RSA modulus or an unimplemented codec strategy — fails fast with a
// ConfigurationError rather than surfacing later through the exception
// handler.
func New(cfg config.Group, opts ...Option) (*Group, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &boterrors.ConfigurationError{Err: err}
	}

	pub, err := rsakey.FromHexModulus(cfg.RSA.ModulusHex, cfg.RSA.Exponent)
	if err != nil {
		return nil, &boterrors.ConfigurationError{Err: err}
	}

	g := &Group{
		cfg:       cfg,
		rsaKey:    pub,
		codec:     logincodec.New(pub),
		handler:   func(string, *message.Message) {},
		logger:    slog.Default(),
		connected: make(chan connectEvent, 32),
		inbox:     make(chan inboundEvent, 256),
		removed:   make(chan string, 32),
	}
	g.onException = func(username string, err error) {
		g.logger.Warn("bot exception", "username", username, "err", err)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Add creates a bot for username/password, dials the group's address on a
// fresh goroutine, and lazily starts the reactor if it is not already
// running. The returned Conn is usable immediately; its LoginFuture
// resolves once the handshake completes or the bot closes.
func (g *Group) Add(username, password string) (*botconn.Conn, error) {
	if _, loaded := g.bots.Load(username); loaded {
		return nil, fmt.Errorf("group: bot %q already exists", username)
	}

	g.mu.Lock()
	disabled := g.disabled
	g.mu.Unlock()
	if disabled {
		return nil, &boterrors.FatalLoopError{Err: errors.New("group: inoperable after a prior fatal event loop error")}
	}

	conn := botconn.New(g.cfg.ConnectAddress, username, password, g.cfg.OutboundQueueSize)
	if _, loaded := g.bots.LoadOrStore(username, conn); loaded {
		return nil, fmt.Errorf("group: bot %q already exists", username)
	}
	g.activeCount.Add(1)
	g.ensureStarted()

	go g.dial(conn)
	return conn, nil
}

// Remove closes username's bot and deregisters it. A no-op if no such
// bot exists.
func (g *Group) Remove(username string) {
	v, loaded := g.bots.Load(username)
	if !loaded {
		return
	}
	g.closeAndDeregister(username, v.(*botconn.Conn))
}

// Bot looks up a bot by username.
func (g *Group) Bot(username string) (*botconn.Conn, bool) {
	v, ok := g.bots.Load(username)
	if !ok {
		return nil, false
	}
	return v.(*botconn.Conn), true
}

// Close closes every bot in the group and stops the reactor, waiting for
// it to exit.
func (g *Group) Close() error {
	g.bots.Range(func(k, v any) bool {
		g.closeAndDeregister(k.(string), v.(*botconn.Conn))
		return true
	})

	g.mu.Lock()
	cancel := g.cancel
	eg := g.eg
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if eg != nil {
		return eg.Wait()
	}
	return nil
}

func (g *Group) closeAndDeregister(username string, conn *botconn.Conn) {
	v, loaded := g.bots.LoadAndDelete(username)
	if !loaded || v.(*botconn.Conn) != conn {
		return
	}
	conn.Close()
	select {
	case g.removed <- username:
	default:
	}
}

// ensureStarted lazily starts the reactor (and the keepalive ticker, if
// configured) the first time a bot is added after the group was created
// or after the reactor idled down to zero bots.
func (g *Group) ensureStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running || g.disabled {
		return
	}
	g.running = true

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	eg, egCtx := errgroup.WithContext(ctx)
	g.eg = eg

	eg.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				fatal := fmt.Errorf("group: reactor panic: %v", r)
				g.shutdownAfterFatal(fatal)
				err = fatal
			}
		}()
		return g.reactorLoop(egCtx)
	})

	if g.cfg.KeepAliveInterval > 0 {
		eg.Go(func() error {
			g.keepAliveLoop(egCtx, g.cfg.KeepAliveInterval)
			return nil
		})
	}
}

func (g *Group) keepAliveLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.bots.Range(func(_, v any) bool {
				conn := v.(*botconn.Conn)
				if conn.IsLoggedIn() {
					frame := buffer.New(1)
					frame.Message(keepAliveOpcode)
					conn.Enqueue(message.New(keepAliveOpcode, 0, frame))
				}
				return true
			})
		}
	}
}

func (g *Group) reactorLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-g.connected:
			g.handleConnected(ev)
		case ev := <-g.inbox:
			g.handleInbound(ev)
		case username := <-g.removed:
			g.handleRemoved(username)
		}
	}
}

func (g *Group) handleRemoved(string) {
	if g.activeCount.Add(-1) == 0 {
		g.mu.Lock()
		if g.cancel != nil {
			g.cancel()
		}
		g.running = false
		g.mu.Unlock()
	}
}

func (g *Group) shutdownAfterFatal(err error) {
	g.mu.Lock()
	g.disabled = true
	g.running = false
	g.mu.Unlock()

	g.bots.Range(func(k, v any) bool {
		v.(*botconn.Conn).Close()
		g.bots.Delete(k)
		return true
	})
	g.logger.Error("fatal event loop error, group disabled", "err", err)
	g.onException("", &boterrors.FatalLoopError{Err: err})
}

func (g *Group) dial(conn *botconn.Conn) {
	err := conn.Connect()
	g.connected <- connectEvent{conn: conn, err: err}
}

func (g *Group) handleConnected(ev connectEvent) {
	if ev.err != nil {
		g.onException(ev.conn.Username(), &boterrors.IoError{Username: ev.conn.Username(), Err: ev.err})
		g.closeAndDeregister(ev.conn.Username(), ev.conn)
		return
	}

	ev.conn.SetState(logincodec.InitialRequest)
	if err := ev.conn.WriteRaw(logincodec.Stage1(ev.conn.Username())); err != nil {
		g.onException(ev.conn.Username(), &boterrors.IoError{Username: ev.conn.Username(), Err: err})
		g.closeAndDeregister(ev.conn.Username(), ev.conn)
		return
	}
	ev.conn.SetState(logincodec.InitialResponse)

	go g.readLoop(ev.conn)
}

func (g *Group) readLoop(conn *botconn.Conn) {
	buf := make([]byte, max(g.cfg.ReadBufferSize, 256))
	for {
		n, err := conn.NetConn().Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case g.inbox <- inboundEvent{conn: conn, data: chunk}:
			case <-conn.Done():
				return
			}
		}
		if err != nil {
			select {
			case g.inbox <- inboundEvent{conn: conn, err: err}:
			case <-conn.Done():
			}
			return
		}
	}
}

func (g *Group) writeLoop(conn *botconn.Conn) {
	for {
		select {
		case msg := <-conn.Outbound():
			enc := conn.Encryptor()
			if enc == nil {
				continue
			}
			if err := conn.WriteRaw(gamecodec.Encode(msg, enc)); err != nil {
				g.onException(conn.Username(), &boterrors.IoError{Username: conn.Username(), Err: err})
				g.closeAndDeregister(conn.Username(), conn)
				return
			}
		case <-conn.Done():
			return
		}
	}
}

func (g *Group) handleInbound(ev inboundEvent) {
	current, ok := g.bots.Load(ev.conn.Username())
	if !ok || current.(*botconn.Conn) != ev.conn {
		return // stale event for an already-removed bot
	}

	if ev.err != nil {
		g.onException(ev.conn.Username(), &boterrors.IoError{Username: ev.conn.Username(), Err: ev.err})
		g.closeAndDeregister(ev.conn.Username(), ev.conn)
		return
	}

	accum := ev.conn.ReadAccum(max(g.cfg.ReadBufferSize, 256))
	accum.WriteRawBytes(ev.data)

	for {
		state := ev.conn.State()
		if state == logincodec.LoggedIn || state == logincodec.LoggedOut {
			break
		}

		reply, newState, progressed, err := g.codec.Step(ev.conn, state, accum)
		if err != nil {
			g.reportLoginError(ev.conn, err)
			g.closeAndDeregister(ev.conn.Username(), ev.conn)
			return
		}
		if !progressed {
			break
		}
		if reply != nil {
			if werr := ev.conn.WriteRaw(reply); werr != nil {
				g.onException(ev.conn.Username(), &boterrors.IoError{Username: ev.conn.Username(), Err: werr})
				g.closeAndDeregister(ev.conn.Username(), ev.conn)
				return
			}
		}

		justLoggedIn := newState == logincodec.LoggedIn
		ev.conn.SetState(newState)
		if justLoggedIn {
			go g.writeLoop(ev.conn)
		}
	}

	if ev.conn.State() == logincodec.LoggedIn {
		msgs, err := ev.conn.Decoder().Decode(accum, ev.conn.Decryptor())
		if err != nil {
			g.onException(ev.conn.Username(), &boterrors.ProtocolError{Username: ev.conn.Username(), Err: err})
			g.closeAndDeregister(ev.conn.Username(), ev.conn)
			return
		}
		for _, m := range msgs {
			g.handler(ev.conn.Username(), m)
		}
	}

	accum.Compact()
}

func (g *Group) reportLoginError(conn *botconn.Conn, err error) {
	var rejected *boterrors.LoginRejected
	if errors.As(err, &rejected) {
		g.onException(conn.Username(), err)
		return
	}
	g.onException(conn.Username(), &boterrors.ProtocolError{Username: conn.Username(), Err: err})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
