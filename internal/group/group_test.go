package group

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/config"
	"github.com/rs317/botswarm/internal/gamecodec"
	"github.com/rs317/botswarm/internal/isaac"
	"github.com/rs317/botswarm/internal/message"
)

func testConfig(addr string) config.Group {
	cfg := config.DefaultGroup()
	cfg.ConnectAddress = addr
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultGroup()
	cfg.ConnectAddress = ""
	if _, err := New(cfg); err == nil {
		t.Fatal("expected New to reject an invalid config")
	}
}

func TestAddRejectsDuplicateUsername(t *testing.T) {
	g, err := New(testConfig("127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	if _, err := g.Add("bot", "pw"); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := g.Add("bot", "pw"); err == nil {
		t.Fatal("expected the second Add with the same username to fail")
	}
}

func TestAddSurfacesIoErrorOnUnreachableAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing is listening anymore; dial should fail

	var mu sync.Mutex
	var gotErr error
	done := make(chan struct{})

	g, err := New(testConfig(addr), WithExceptionHandler(func(username string, err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
		close(done)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	if _, err := g.Add("bot", "pw"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("exception handler was never called")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotErr == nil {
		t.Fatal("expected a non-nil error")
	}
	if _, ok := g.Bot("bot"); ok {
		t.Fatal("bot should have been deregistered after a connect failure")
	}
}

// fakeServer drives the server side of one handshake over a raw TCP
// connection: it plays stage 2 and the final acknowledgement, then sends
// one fixed-length game frame (opcode 0) back to the client and keeps the
// connection open until the client closes it.
func fakeServer(t *testing.T, ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	// Stage 1: opcode + top 5 bits of the base-37 username. Two bytes.
	stage1 := make([]byte, 2)
	if _, err := io.ReadFull(conn, stage1); err != nil {
		t.Errorf("fakeServer: reading stage1: %v", err)
		return
	}

	const s2, s3 = uint32(0x11223344), uint32(0x55667788)
	resp := make([]byte, 0, 17)
	resp = append(resp, make([]byte, 8)...)
	resp = append(resp, 0) // status ok
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], s2)
	resp = append(resp, word[:]...)
	binary.BigEndian.PutUint32(word[:], s3)
	resp = append(resp, word[:]...)
	if _, err := conn.Write(resp); err != nil {
		t.Errorf("fakeServer: writing stage2: %v", err)
		return
	}

	header := make([]byte, 2)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.Errorf("fakeServer: reading client-info header: %v", err)
		return
	}
	body := make([]byte, header[1])
	if _, err := io.ReadFull(conn, body); err != nil {
		t.Errorf("fakeServer: reading client-info body: %v", err)
		return
	}

	// body layout: marker(1) + version(2) + flag(1) + 9*crc(36) + secureBytes.
	secureBytes := body[40:]
	innerLen := secureBytes[0]
	inner := secureBytes[1 : 1+int(innerLen)]
	// inner layout: opcode(1) + s0(4) + s1(4) + s2(4) + s3(4) + uid(4) + strings...
	s0 := binary.BigEndian.Uint32(inner[1:5])
	s1 := binary.BigEndian.Uint32(inner[5:9])

	if _, err := conn.Write([]byte{2, 0, 0}); err != nil {
		t.Errorf("fakeServer: writing final response: %v", err)
		return
	}

	serverEncryptor := isaac.New([4]uint32{s0 + 50, s1 + 50, s2 + 50, s3 + 50})
	payload := buffer.New(1)
	payload.Message(0) // opcode 0 is a zero-length fixed frame
	frame := gamecodec.Encode(message.New(0, 0, payload), serverEncryptor)
	if _, err := conn.Write(frame); err != nil {
		t.Errorf("fakeServer: writing game frame: %v", err)
		return
	}

	// Hold the connection open until the client closes it, so the bot does
	// not see an EOF (and report an IoError) before the test is done.
	_, _ = io.Copy(io.Discard, conn)
}

func TestHandshakeAndMessageDelivery(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go fakeServer(t, ln)

	received := make(chan *message.Message, 1)
	g, err := New(testConfig(ln.Addr().String()), WithMessageHandler(func(username string, msg *message.Message) {
		received <- msg
	}), WithExceptionHandler(func(username string, err error) {
		t.Errorf("unexpected exception for %q: %v", username, err)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	bot, err := g.Add("bot", "password1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !bot.LoginFuture().WaitTimeout(5 * time.Second) {
		t.Fatal("bot did not log in within the timeout")
	}

	select {
	case msg := <-received:
		if msg.Opcode != 0 {
			t.Fatalf("opcode = %d, want 0", msg.Opcode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message handler was never invoked")
	}
}

func TestRemoveDeregistersBot(t *testing.T) {
	g, err := New(testConfig("127.0.0.1:1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	bot, err := g.Add("bot", "pw")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	g.Remove("bot")

	if _, ok := g.Bot("bot"); ok {
		t.Fatal("bot should be gone after Remove")
	}
	select {
	case <-bot.Done():
	case <-time.After(time.Second):
		t.Fatal("removed bot's Done channel should be closed")
	}
}
