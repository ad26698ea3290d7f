// Package message defines the decoded game-frame triple produced by the
// game codec and consumed by message handlers.
package message

import "github.com/rs317/botswarm/internal/buffer"

// Size sentinels matching the game codec's packet length table.
const (
	SizeVarByte  = -1
	SizeVarShort = -2
)

// Message is an immutable opcode+length+payload triple. Outbound messages
// are built via New; inbound ones are produced by the game codec decoder.
type Message struct {
	Opcode  byte
	Size    int
	Payload *buffer.Buffer
}

// New creates a fixed or variable-length outbound message. size should be
// one of SizeVarByte, SizeVarShort, or a non-negative fixed length; it is
// informational for outbound messages since the payload buffer already
// carries its own length.
func New(opcode byte, size int, payload *buffer.Buffer) *Message {
	return &Message{Opcode: opcode, Size: size, Payload: payload}
}
