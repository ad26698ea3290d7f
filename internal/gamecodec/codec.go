// Package gamecodec implements the post-login game-frame codec: an
// opcode-keyed length table for decoding inbound frames, and ISAAC-offset
// opcode encryption for outbound ones.
package gamecodec

import (
	"fmt"

	"github.com/rs317/botswarm/internal/buffer"
	"github.com/rs317/botswarm/internal/isaac"
	"github.com/rs317/botswarm/internal/message"
)

// noOpcode marks that Decoder has not yet read an opcode byte for the frame
// currently in progress.
const noOpcode = -1

// Encode offsets msg's opcode byte by the next ISAAC keystream word and
// returns the raw bytes to write to the socket. Exactly one keystream word
// is consumed per call.
func Encode(msg *message.Message, encryptor *isaac.Cipher) []byte {
	raw := msg.Payload.Bytes()
	out := make([]byte, len(raw))
	copy(out, raw)
	out[0] = byte((uint32(out[0]) + encryptor.Key()) & 0xff)
	return out
}

// Decoder holds per-connection inbound frame-parsing state across calls to
// Decode, so a frame split across multiple socket reads resumes correctly.
type Decoder struct {
	opcode      int
	length      int
	lengthKnown bool
}

// NewDecoder creates a decoder with no frame in progress.
func NewDecoder() *Decoder {
	return &Decoder{opcode: noOpcode}
}

// Decode consumes as many complete frames as are available in buf (a
// buffer positioned for reading, i.e. data between its read and write
// cursors) and returns them in arrival order. Bytes belonging to an
// incomplete trailing frame are left unread so a subsequent call, after
// more bytes arrive, completes it. Exactly one ISAAC keystream word is
// consumed per opcode byte recognized.
func (d *Decoder) Decode(buf *buffer.Buffer, decryptor *isaac.Cipher) ([]*message.Message, error) {
	var out []*message.Message

	for {
		if d.opcode == noOpcode {
			if buf.Remaining() < 1 {
				break
			}
			raw := buf.ReadByte(buffer.NORMAL)
			d.opcode = int(byte(uint32(raw) - decryptor.Key()&0xff))
			d.length = packetLengths[d.opcode]
			d.lengthKnown = d.length >= 0
		}

		if !d.lengthKnown {
			switch d.length {
			case message.SizeVarByte:
				if buf.Remaining() < 1 {
					return out, nil
				}
				d.length = int(buf.ReadByte(buffer.NORMAL))
				d.lengthKnown = true
			case message.SizeVarShort:
				if buf.Remaining() < 2 {
					return out, nil
				}
				lo := int(buf.ReadByte(buffer.NORMAL))
				hi := int(buf.ReadByte(buffer.NORMAL))
				d.length = lo | (hi << 8)
				d.lengthKnown = true
			default:
				return out, fmt.Errorf("gamecodec: opcode %d has unknown length sentinel %d", d.opcode, d.length)
			}
		}

		if buf.Remaining() < d.length {
			break
		}

		payload := buffer.NewFromBytes(buf.ReadRawBytes(d.length))
		out = append(out, message.New(byte(d.opcode), d.length, payload))

		d.opcode = noOpcode
		d.lengthKnown = false
	}

	return out, nil
}
