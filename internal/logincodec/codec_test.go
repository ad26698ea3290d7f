package logincodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs317/botswarm/internal/boterrors"
	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/isaac"
)

// fakeConn is a minimal Conn for driving Codec.Step in isolation.
type fakeConn struct {
	username  string
	password  string
	encryptor *isaac.Cipher
	decryptor *isaac.Cipher
}

func (f *fakeConn) Username() string                    { return f.username }
func (f *fakeConn) Password() string                    { return f.password }
func (f *fakeConn) SetEncryptor(c *isaac.Cipher)         { f.encryptor = c }
func (f *fakeConn) SetDecryptor(c *isaac.Cipher)         { f.decryptor = c }

func TestEncodeBase37CaseFolds(t *testing.T) {
	if EncodeBase37("A") != EncodeBase37("a") {
		t.Fatal("EncodeBase37 should fold case")
	}
	if EncodeBase37("") != 0 {
		t.Fatalf("EncodeBase37(\"\") = %d, want 0", EncodeBase37(""))
	}
	if got, want := EncodeBase37("bot#"), EncodeBase37("bot")*37; got != want {
		t.Fatalf("unknown character should contribute 0 but still shift a base-37 digit: got %d, want %d", got, want)
	}
}

func TestStage1Frame(t *testing.T) {
	frame := Stage1("bot")
	if len(frame) != 2 {
		t.Fatalf("Stage1 frame length = %d, want 2", len(frame))
	}
	if frame[0] != initialRequestOpcode {
		t.Fatalf("Stage1[0] = %#x, want %#x", frame[0], initialRequestOpcode)
	}
	want := byte((EncodeBase37("bot") >> 16) & 0x1F)
	if frame[1] != want {
		t.Fatalf("Stage1[1] = %#x, want %#x", frame[1], want)
	}
}

func TestStepInitialResponseHappyPath(t *testing.T) {
	codec := New(nil)
	conn := &fakeConn{username: "bot", password: "pw"}

	buf := buffer.New(32)
	buf.WriteRawBytes(make([]byte, 8)) // discarded prefix
	buf.WriteByte(0, buffer.NORMAL)    // status ok
	buf.WriteInt(0x01020304, buffer.NORMAL, buffer.BIG)
	buf.WriteInt(0x05060708, buffer.NORMAL, buffer.BIG)

	reply, newState, progressed, err := codec.Step(conn, InitialResponse, buf)
	require.NoError(t, err, "Step on a well-formed stage-2 response")
	require.True(t, progressed, "Step did not progress with a complete stage-2 response")
	assert.Equal(t, FinalResponse, newState)
	require.NotNil(t, reply, "expected a client-info reply frame")

	assert.Equal(t, byte(clientInfoOpcode), reply[0], "reply opcode")
	assert.Equal(t, byte(clientVariantMarker), reply[2], "reply client-variant marker")
	version := uint16(reply[3])<<8 | uint16(reply[4])
	assert.Equal(t, uint16(protocolRevision), version, "reply protocol revision")

	assert.NotNil(t, conn.encryptor, "expected the outbound cipher to be seeded")
	assert.NotNil(t, conn.decryptor, "expected the inbound cipher to be seeded")
}

func TestStepInitialResponseRejectsBadStatus(t *testing.T) {
	codec := New(nil)
	conn := &fakeConn{username: "bot", password: "pw"}

	buf := buffer.New(32)
	buf.WriteRawBytes(make([]byte, 8))
	buf.WriteByte(3, buffer.NORMAL) // non-zero: rejected
	buf.WriteInt(1, buffer.NORMAL, buffer.BIG)
	buf.WriteInt(2, buffer.NORMAL, buffer.BIG)

	_, _, progressed, err := codec.Step(conn, InitialResponse, buf)
	assert.True(t, progressed, "expected the bad-status frame to be consumed")

	var rejected *boterrors.LoginRejected
	require.Error(t, err, "expected a LoginRejected error")
	require.True(t, asLoginRejected(err, &rejected), "expected *boterrors.LoginRejected, got %T", err)
	assert.Equal(t, byte(3), rejected.Got)
}

func TestStepInitialResponseWaitsForMoreBytes(t *testing.T) {
	codec := New(nil)
	conn := &fakeConn{username: "bot", password: "pw"}

	buf := buffer.New(32)
	buf.WriteRawBytes(make([]byte, 10)) // fewer than the 17 required bytes

	_, newState, progressed, err := codec.Step(conn, InitialResponse, buf)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if progressed {
		t.Fatal("expected progressed=false on a partial read")
	}
	if newState != InitialResponse {
		t.Fatalf("newState = %v, want InitialResponse unchanged", newState)
	}
}

func TestStepFinalResponseHappyPath(t *testing.T) {
	codec := New(nil)
	conn := &fakeConn{username: "bot"}

	buf := buffer.New(8)
	buf.WriteByte(finalOKOpcode, buffer.NORMAL)
	buf.WriteByte(0, buffer.NORMAL)
	buf.WriteByte(0, buffer.NORMAL)

	_, newState, progressed, err := codec.Step(conn, FinalResponse, buf)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !progressed || newState != LoggedIn {
		t.Fatalf("got progressed=%v newState=%v, want true, LoggedIn", progressed, newState)
	}
}

func TestStepFinalResponseRejectsBadOpcode(t *testing.T) {
	codec := New(nil)
	conn := &fakeConn{username: "bot"}

	buf := buffer.New(8)
	buf.WriteByte(3, buffer.NORMAL)
	buf.WriteByte(0, buffer.NORMAL)
	buf.WriteByte(0, buffer.NORMAL)

	_, _, progressed, err := codec.Step(conn, FinalResponse, buf)
	if !progressed {
		t.Fatal("expected the bad-opcode frame to be consumed")
	}
	if err == nil {
		t.Fatal("expected a LoginRejected error")
	}
}

// asLoginRejected avoids importing errors.As twice across test functions.
func asLoginRejected(err error, target **boterrors.LoginRejected) bool {
	rejected, ok := err.(*boterrors.LoginRejected)
	if ok {
		*target = rejected
	}
	return ok
}
