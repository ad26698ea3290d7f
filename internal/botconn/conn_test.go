package botconn

import (
	"context"
	"testing"
	"time"

	"github.com/rs317/botswarm/internal/isaac"
	"github.com/rs317/botswarm/internal/logincodec"
	"github.com/rs317/botswarm/internal/message"
)

func TestNewStartsRegisteredNotLoggedIn(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	if c.State() != logincodec.Registered {
		t.Fatalf("State() = %v, want Registered", c.State())
	}
	if c.IsLoggedIn() {
		t.Fatal("a fresh connection should not be logged in")
	}
	if c.Username() != "bot" || c.Password() != "pw" {
		t.Fatalf("Username/Password = %q/%q, want bot/pw", c.Username(), c.Password())
	}
}

func TestSetStateLoggedInResolvesFuture(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	c.SetState(logincodec.LoggedIn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if !c.LoginFuture().Wait(ctx) {
		t.Fatal("LoginFuture should resolve true after LOGGED_IN")
	}
}

func TestSetStateLoggedOutResolvesFutureFalse(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	c.SetState(logincodec.LoggedOut)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if c.LoginFuture().Wait(ctx) {
		t.Fatal("LoginFuture should resolve false after LOGGED_OUT")
	}
}

func TestLoginFutureTimeoutReturnsCurrentState(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	if c.LoginFuture().WaitTimeout(10 * time.Millisecond) {
		t.Fatal("WaitTimeout before any resolution should reflect IsLoggedIn()=false")
	}
}

func TestEncryptorDecryptorRoundTrip(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	if c.Encryptor() != nil || c.Decryptor() != nil {
		t.Fatal("ciphers should be nil before the handshake seeds them")
	}
	enc := isaac.New([4]uint32{1, 2, 3, 4})
	dec := isaac.New([4]uint32{51, 52, 53, 54})
	c.SetEncryptor(enc)
	c.SetDecryptor(dec)
	if c.Encryptor() != enc || c.Decryptor() != dec {
		t.Fatal("Encryptor/Decryptor did not return the installed ciphers")
	}
}

func TestEnqueueNoopWhenNotLoggedIn(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 1)
	c.Enqueue(message.New(1, 0, nil))
	select {
	case <-c.Outbound():
		t.Fatal("Enqueue before LOGGED_IN should be a no-op")
	default:
	}
}

func TestEnqueueDeliversWhenLoggedIn(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 1)
	c.SetState(logincodec.LoggedIn)
	msg := message.New(1, 0, nil)
	c.Enqueue(msg)

	select {
	case got := <-c.Outbound():
		if got != msg {
			t.Fatal("Outbound() did not return the enqueued message")
		}
	default:
		t.Fatal("expected the message to be queued")
	}
}

func TestEnqueueDoesNotBlockAfterClose(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 0) // unbuffered: on a live bot with no reader, Enqueue would block forever
	c.SetState(logincodec.LoggedIn)
	_ = c.Close()

	done := make(chan struct{})
	go func() {
		c.Enqueue(message.New(1, 0, nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not return after the connection closed")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done() channel should be closed")
	}
}

func TestReadAccumCreatesOnce(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	first := c.ReadAccum(64)
	second := c.ReadAccum(128)
	if first != second {
		t.Fatal("ReadAccum should return the same buffer on subsequent calls")
	}
}

func TestWriteRawFailsWithoutConnect(t *testing.T) {
	c := New("127.0.0.1:1", "bot", "pw", 8)
	if err := c.WriteRaw([]byte{1}); err == nil {
		t.Fatal("expected an error writing to an unconnected bot")
	}
}
