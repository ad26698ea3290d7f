// Package config holds the configuration surface for a bot group: the
// connect address, codec strategy selection, the optional RSA public key,
// and tuning knobs for buffers and timeouts. It mirrors the loader shape
// used throughout this codebase's ambient stack: a typed struct with yaml
// tags, a Default... constructor, and a Load... function that falls back
// to defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy names a protocol revision's codec implementation. 317 is the
// only revision this library ships, but the type keeps the door open for
// other revisions' codecs without committing to any particular plugin
// mechanism.
type Strategy string

// Rev317 selects the revision-317 login/game codec strategies.
const Rev317 Strategy = "317"

// RSA describes the optional RSA public key used to encrypt the login
// secure block. A zero value (empty ModulusHex) means no RSA key is
// configured and the login codec writes the secure block in the clear,
// behind the same length-prefix framing an RSA block would use.
type RSA struct {
	ModulusHex string `yaml:"modulus_hex"`
	Exponent   int    `yaml:"exponent"`
}

// Group is the configuration surface for a bot group: connect address,
// codec strategy selection, the optional RSA public key, and tuning
// knobs for buffers and timeouts.
type Group struct {
	ConnectAddress string `yaml:"connect_address"`

	MessageEncoder Strategy `yaml:"message_encoder"`
	MessageDecoder Strategy `yaml:"message_decoder"`
	LoginEncoder   Strategy `yaml:"login_encoder"`

	RSA RSA `yaml:"rsa"`

	DialTimeout       time.Duration `yaml:"dial_timeout"`
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	OutboundQueueSize int           `yaml:"outbound_queue_size"`

	// KeepAliveInterval, when non-zero, makes the group send an empty
	// game message to every logged-in bot on this cadence.
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval"`
}

// DefaultGroup returns a Group configured with sane RuneScape 317
// defaults.
func DefaultGroup() Group {
	return Group{
		ConnectAddress:    "127.0.0.1:43594",
		MessageEncoder:    Rev317,
		MessageDecoder:    Rev317,
		LoginEncoder:      Rev317,
		DialTimeout:       5 * time.Second,
		ReadBufferSize:    5000,
		OutboundQueueSize: 64,
	}
}

// LoadGroup loads a Group from a YAML file, starting from DefaultGroup and
// overlaying whatever the file specifies. A missing file is not an error —
// it yields the defaults.
func LoadGroup(path string) (Group, error) {
	cfg := DefaultGroup()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate fails fast on configuration that cannot possibly be used to
// drive the protocol.
func (g Group) Validate() error {
	if g.ConnectAddress == "" {
		return fmt.Errorf("config: connect_address must not be empty")
	}
	if g.MessageEncoder != Rev317 || g.MessageDecoder != Rev317 || g.LoginEncoder != Rev317 {
		return fmt.Errorf("config: only the %q codec strategy is implemented", Rev317)
	}
	if g.ReadBufferSize < 256 {
		return fmt.Errorf("config: read_buffer_size must be at least 256, got %d", g.ReadBufferSize)
	}
	return nil
}
