// Package botswarm is a client-side library that drives multiple
// simulated players ("bots") through the RuneScape 317 game protocol: it
// opens TCP connections to a game server, runs the RSA-secured login
// handshake, installs the resulting ISAAC ciphers, and encodes/decodes
// post-login game frames, all under one reactor goroutine per Group.
package botswarm

import (
	"context"
	"time"

	"github.com/rs317/botswarm/internal/botconn"
	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/config"
	"github.com/rs317/botswarm/internal/group"
	"github.com/rs317/botswarm/internal/message"
)

// Bot is a single logged-in (or logging-in) connection owned by a Group.
type Bot = botconn.Conn

// Payload is the growable byte buffer outbound messages are built from.
type Payload = buffer.Buffer

// Message is a decoded post-login game frame: opcode, length, payload.
type Message = message.Message

// NewPayload creates an empty Payload with the given initial capacity.
func NewPayload(capacity int) *Payload { return buffer.New(capacity) }

// MessageHandler and ExceptionHandler are re-exported so callers never
// need to import the internal group package directly.
type (
	MessageHandler   = group.MessageHandler
	ExceptionHandler = group.ExceptionHandler
)

// Config is the external configuration surface for a Group: connect
// address, codec strategy selection, RSA public key, and buffer/timeout
// tuning. See DefaultConfig for the RuneScape 317 defaults.
type Config = config.Group

// DefaultConfig returns sane revision-317 defaults.
func DefaultConfig() Config { return config.DefaultGroup() }

// LoadConfig loads a Config from a YAML file, falling back to
// DefaultConfig for any field the file does not set (and entirely when
// the file does not exist).
func LoadConfig(path string) (Config, error) { return config.LoadGroup(path) }

// Group is a named cluster of bots sharing a connect address and codec
// strategy. Its event loop starts lazily on the first Add and idles down
// once the last bot is removed.
type Group struct {
	inner *group.Group
}

// Option configures a Group at construction time.
type Option = group.Option

// WithMessageHandler sets the callback invoked for every decoded
// post-login game message. The default handler drops messages.
func WithMessageHandler(h MessageHandler) Option { return group.WithMessageHandler(h) }

// WithExceptionHandler sets the callback invoked whenever a bot hits an
// IO error, a rejected login, a protocol error, or (group-wide, with an
// empty username) a fatal event-loop error.
func WithExceptionHandler(h ExceptionHandler) Option { return group.WithExceptionHandler(h) }

// NewGroup validates cfg and constructs a Group. An invalid
// configuration returns a ConfigurationError immediately rather than
// surfacing later through the exception handler.
func NewGroup(cfg Config, opts ...Option) (*Group, error) {
	inner, err := group.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Group{inner: inner}, nil
}

// Add starts a new bot logging in as username/password. The returned
// Bot's LoginFuture resolves once the handshake completes or the bot
// closes.
func (g *Group) Add(username, password string) (*Bot, error) {
	return g.inner.Add(username, password)
}

// Remove closes and deregisters username's bot. A no-op if it does not
// exist.
func (g *Group) Remove(username string) { g.inner.Remove(username) }

// Bot looks up a bot by username.
func (g *Group) Bot(username string) (*Bot, bool) { return g.inner.Bot(username) }

// Close closes every bot in the group and stops its reactor.
func (g *Group) Close() error { return g.inner.Close() }

// WaitLoggedIn blocks until b logs in, closes, or ctx is
// done, whichever comes first, returning the bot's login state.
func WaitLoggedIn(ctx context.Context, b *Bot) bool {
	return b.LoginFuture().Wait(ctx)
}

// WaitLoggedInTimeout is WaitLoggedIn with a relative deadline.
func WaitLoggedInTimeout(b *Bot, d time.Duration) bool {
	return b.LoginFuture().WaitTimeout(d)
}

// NewMessage re-exports message.New so callers outside this module can
// build outbound frames without importing an internal package.
func NewMessage(opcode byte, size int, payload *Payload) *message.Message {
	return message.New(opcode, size, payload)
}
