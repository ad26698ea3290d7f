// Package logincodec implements the three-stage RuneScape 317 login
// handshake: the outbound initial request, the inbound-then-outbound
// secure-block exchange that seeds the ISAAC ciphers, and the inbound
// final acknowledgement.
package logincodec

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"fmt"

	"github.com/rs317/botswarm/internal/boterrors"
	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/isaac"
)

// Conn is the view of a bot connection the login codec needs. botconn.Conn
// satisfies it; the indirection keeps this package from importing botconn
// (which in turn needs the codec), mirroring the handler-takes-an-opaque-
// session shape used elsewhere in this codebase's packet registry.
type Conn interface {
	Username() string
	Password() string
	SetEncryptor(*isaac.Cipher)
	SetDecryptor(*isaac.Cipher)
}

const (
	initialRequestOpcode = 0x0E
	clientInfoOpcode     = 0x10
	clientVariantMarker  = 0xFF
	protocolRevision     = 317
	clientUIDPlaceholder = 0x6F2CD
	secureBlockOpcode    = 0x0A
	loginOKOpcode        = 0x00
	finalOKOpcode        = 0x02
)

// Codec drives the login handshake. It is stateless with respect to any
// single connection — all per-connection state (ConnState, the ISAAC
// ciphers) lives on the Conn.
type Codec struct {
	rsaKey *rsa.PublicKey
}

// New creates a login codec that encrypts the secure block with rsaKey, or
// writes it unencrypted (behind the same length-prefix framing) when
// rsaKey is nil.
func New(rsaKey *rsa.PublicKey) *Codec {
	return &Codec{rsaKey: rsaKey}
}

// Stage1 builds the two-byte initial login request for username.
func Stage1(username string) []byte {
	buf := buffer.New(2)
	buf.WriteByte(initialRequestOpcode, buffer.NORMAL)
	top := byte((EncodeBase37(username) >> 16) & 0x1F)
	buf.WriteByte(top, buffer.NORMAL)
	return buf.Bytes()
}

// Step advances the handshake given bytes already available to read in
// buf, for either the InitialResponse or FinalResponse stage. It returns
// the raw bytes of a reply to write (nil if none), the bot's new state,
// and whether those bytes were actually consumed from buf — false means
// not enough bytes were available yet and the caller should leave buf
// alone and wait for more to arrive.
func (c *Codec) Step(conn Conn, state ConnState, buf *buffer.Buffer) ([]byte, ConnState, bool, error) {
	switch state {
	case InitialResponse:
		return c.stepInitialResponse(conn, buf)
	case FinalResponse:
		return stepFinalResponse(conn, buf)
	default:
		return nil, state, false, nil
	}
}

func (c *Codec) stepInitialResponse(conn Conn, buf *buffer.Buffer) ([]byte, ConnState, bool, error) {
	const required = 8 + 1 + 8 // discarded prefix + status byte + two server seed words
	if buf.Remaining() < required {
		return nil, InitialResponse, false, nil
	}

	buf.ReadRawBytes(8)
	status := buf.ReadByte(buffer.NORMAL)
	if status != 0 {
		return nil, InitialResponse, true, &boterrors.LoginRejected{
			Username: conn.Username(),
			Stage:    "INITIAL_RESPONSE",
			Expected: 0,
			Got:      status,
		}
	}

	s2, err := buf.ReadInt(buffer.NORMAL, buffer.BIG)
	if err != nil {
		return nil, InitialResponse, true, err
	}
	s3, err := buf.ReadInt(buffer.NORMAL, buffer.BIG)
	if err != nil {
		return nil, InitialResponse, true, err
	}

	s0, err := randomSeedWord()
	if err != nil {
		return nil, InitialResponse, true, fmt.Errorf("logincodec: generating client seed: %w", err)
	}
	s1, err := randomSeedWord()
	if err != nil {
		return nil, InitialResponse, true, fmt.Errorf("logincodec: generating client seed: %w", err)
	}

	secure := buffer.New(64)
	secure.WriteByte(secureBlockOpcode, buffer.NORMAL)
	secure.WriteInt(s0, buffer.NORMAL, buffer.BIG)
	secure.WriteInt(s1, buffer.NORMAL, buffer.BIG)
	secure.WriteInt(s2, buffer.NORMAL, buffer.BIG)
	secure.WriteInt(s3, buffer.NORMAL, buffer.BIG)
	secure.WriteInt(clientUIDPlaceholder, buffer.NORMAL, buffer.BIG)
	secure.WriteString(conn.Username())
	secure.WriteString(conn.Password())
	if err := secure.EncodeRSA(c.rsaKey); err != nil {
		return nil, InitialResponse, true, fmt.Errorf("logincodec: encoding secure block: %w", err)
	}
	secureBytes := secure.Bytes()

	client := buffer.New(64 + len(secureBytes))
	client.WriteByte(clientInfoOpcode, buffer.NORMAL)
	client.WriteByte(byte(len(secureBytes)+40), buffer.NORMAL)
	client.WriteByte(clientVariantMarker, buffer.NORMAL)
	client.WriteShort(protocolRevision, buffer.NORMAL, buffer.BIG)
	client.WriteByte(0x00, buffer.NORMAL) // low-memory flag
	for i := 0; i < 9; i++ {
		crc, err := randomSeedWord()
		if err != nil {
			return nil, InitialResponse, true, fmt.Errorf("logincodec: generating crc placeholder: %w", err)
		}
		client.WriteInt(crc, buffer.NORMAL, buffer.BIG)
	}
	client.WriteRawBytes(secureBytes)

	conn.SetEncryptor(isaac.New([4]uint32{s0, s1, s2, s3}))
	conn.SetDecryptor(isaac.New([4]uint32{s0 + 50, s1 + 50, s2 + 50, s3 + 50}))

	return client.Bytes(), FinalResponse, true, nil
}

func stepFinalResponse(conn Conn, buf *buffer.Buffer) ([]byte, ConnState, bool, error) {
	const required = 1 + 2 // opcode + 2 ignored flag bytes
	if buf.Remaining() < required {
		return nil, FinalResponse, false, nil
	}

	opcode := buf.ReadByte(buffer.NORMAL)
	buf.ReadRawBytes(2)

	if opcode != finalOKOpcode {
		return nil, FinalResponse, true, &boterrors.LoginRejected{
			Username: conn.Username(),
			Stage:    "FINAL_RESPONSE",
			Expected: finalOKOpcode,
			Got:      opcode,
		}
	}
	return nil, LoggedIn, true, nil
}

// randomSeedWord draws a cryptographically random 32-bit word for the
// client-side handshake seeds and CRC placeholders.
func randomSeedWord() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
