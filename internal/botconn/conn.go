// Package botconn implements the bot connection: the socket, its read
// accumulator, its outbound queue, its handshake state, and its login
// future — one struct owning a single bot's whole connection lifecycle,
// with handshake state and both ISAAC ciphers behind mutex-guarded
// accessor methods.
package botconn

import (
	"fmt"
	"net"
	"sync"

	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/gamecodec"
	"github.com/rs317/botswarm/internal/isaac"
	"github.com/rs317/botswarm/internal/logincodec"
	"github.com/rs317/botswarm/internal/message"
)

// Conn owns one bot's socket and all state touched by the handshake and
// game codecs. The handshake state and both ciphers are guarded by mu;
// readAccum and decoder are touched only by the reactor goroutine; netConn
// itself is safe for concurrent
// Read/Write per the net.Conn contract, which is what lets WriteRaw and
// Enqueue be called from outside the reactor goroutine.
type Conn struct {
	username string
	password string

	address string
	netConn net.Conn

	mu        sync.Mutex
	state     logincodec.ConnState
	encryptor *isaac.Cipher
	decryptor *isaac.Cipher

	outbound    chan *message.Message
	loginFuture *LoginFuture
	doneCh      chan struct{}

	// readAccum holds inbound bytes not yet consumed by the login or game
	// codec; it is touched only by the reactor goroutine that owns this
	// bot.
	readAccum *buffer.Buffer
	decoder   *gamecodec.Decoder

	closeOnce sync.Once
}

// New creates a bot connection in state REGISTERED. It does not dial;
// call Connect to do that.
func New(address, username, password string, outboundQueueSize int) *Conn {
	c := &Conn{
		username: username,
		password: password,
		address:  address,
		state:    logincodec.Registered,
		outbound: make(chan *message.Message, outboundQueueSize),
		doneCh:   make(chan struct{}),
		decoder:  gamecodec.NewDecoder(),
	}
	c.loginFuture = newLoginFuture(c.IsLoggedIn)
	return c
}

// ReadAccum returns the bot's inbound byte accumulator, creating it with
// the given initial capacity on first use.
func (c *Conn) ReadAccum(initialCapacity int) *buffer.Buffer {
	if c.readAccum == nil {
		c.readAccum = buffer.New(initialCapacity)
	}
	return c.readAccum
}

// Decoder returns the bot's in-progress game frame decoder.
func (c *Conn) Decoder() *gamecodec.Decoder { return c.decoder }

// Connect dials the group's address and sets TCP_NODELAY. Go's net.Dial
// blocks the calling goroutine rather than registering for readiness on
// an event loop; the group calls Connect from a separate goroutine per bot,
// not from the reactor, so the rest of the group is never held up by one
// slow connect.
func (c *Conn) Connect() error {
	conn, err := net.Dial("tcp", c.address)
	if err != nil {
		return fmt.Errorf("botconn: dial %s: %w", c.address, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	c.netConn = conn
	return nil
}

// Username returns the bot's account name.
func (c *Conn) Username() string { return c.username }

// Password returns the bot's account password.
func (c *Conn) Password() string { return c.password }

// State returns the current handshake state.
func (c *Conn) State() logincodec.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState sets the handshake state and, on the LOGGED_IN transition,
// resolves the login future. On any transition to LOGGED_OUT it resolves
// the future with false, releasing anyone still waiting.
func (c *Conn) SetState(s logincodec.ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()

	switch s {
	case logincodec.LoggedIn:
		c.loginFuture.resolve(true)
	case logincodec.LoggedOut:
		c.loginFuture.resolve(false)
	}
}

// IsLoggedIn reports whether the bot has completed the handshake.
func (c *Conn) IsLoggedIn() bool {
	return c.State() == logincodec.LoggedIn
}

// LoginFuture returns the bot's login future.
func (c *Conn) LoginFuture() *LoginFuture { return c.loginFuture }

// SetEncryptor installs the outbound opcode cipher, seeded at the end of
// the stage-2 handshake.
func (c *Conn) SetEncryptor(cipher *isaac.Cipher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encryptor = cipher
}

// SetDecryptor installs the inbound opcode cipher.
func (c *Conn) SetDecryptor(cipher *isaac.Cipher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decryptor = cipher
}

// Encryptor returns the outbound cipher, or nil before it is seeded.
func (c *Conn) Encryptor() *isaac.Cipher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encryptor
}

// Decryptor returns the inbound cipher, or nil before it is seeded.
func (c *Conn) Decryptor() *isaac.Cipher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decryptor
}

// WriteRaw writes p directly to the socket, bypassing the outbound queue
// and game-frame encoding. Used by the login codec, which frames its own
// bytes.
func (c *Conn) WriteRaw(p []byte) error {
	if c.netConn == nil {
		return fmt.Errorf("botconn: write on unconnected bot %q", c.username)
	}
	_, err := c.netConn.Write(p)
	if err != nil {
		return fmt.Errorf("botconn: write: %w", err)
	}
	return nil
}

// Enqueue queues a game message for the writer goroutine to encode and
// flush. Per spec, writes while not LOGGED_IN are no-ops. The send
// blocks if the outbound queue is full, applying backpressure to the
// caller rather than silently reordering or dropping messages, but gives
// up as soon as the bot closes.
func (c *Conn) Enqueue(msg *message.Message) {
	if !c.IsLoggedIn() {
		return
	}
	select {
	case c.outbound <- msg:
	case <-c.doneCh:
	}
}

// Outbound exposes the outbound queue for the writer goroutine to drain.
func (c *Conn) Outbound() <-chan *message.Message { return c.outbound }

// Done is closed once the bot closes, unblocking anyone waiting on
// Enqueue or draining Outbound.
func (c *Conn) Done() <-chan struct{} { return c.doneCh }

// NetConn exposes the raw socket for the reactor's read loop.
func (c *Conn) NetConn() net.Conn { return c.netConn }

// Close closes the socket and marks the bot LOGGED_OUT. Safe to call more
// than once and from any goroutine.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.SetState(logincodec.LoggedOut)
		close(c.doneCh)
		if c.netConn != nil {
			err = c.netConn.Close()
		}
	})
	return err
}
