// Package isaac implements the ISAAC keystream generator (Bob Jenkins,
// 1996) used to offset message opcodes once a bot's login handshake has
// completed. Each Cipher produces one 32-bit word per call to Key; the
// encryptor and decryptor sides of a connection each own an independent,
// non-shared Cipher instance seeded from the same four handshake words
// (offset by +50 for the decryptor, per the login protocol).
package isaac

const (
	sizeLog = 8
	size    = 1 << sizeLog // 256
)

// Cipher is a standard ISAAC pseudorandom generator producing one 32-bit
// output word per call to Key.
type Cipher struct {
	mem     [size]uint32
	rsl     [size]uint32
	a, b, c uint32
	count   int
}

// New creates a Cipher seeded from four 32-bit words, as produced during
// the login handshake's secure-seed exchange.
func New(seed [4]uint32) *Cipher {
	c := &Cipher{}
	for i, s := range seed {
		c.rsl[i] = s
	}
	c.init()
	return c
}

// Key returns the next 32-bit keystream word.
func (c *Cipher) Key() uint32 {
	if c.count == 0 {
		c.generate()
		c.count = size
	}
	c.count--
	v := c.rsl[c.count]
	return v
}

func (c *Cipher) init() {
	var h [8]uint32
	h[0], h[1], h[2], h[3] = 0x9e3779b9, 0x9e3779b9, 0x9e3779b9, 0x9e3779b9
	h[4], h[5], h[6], h[7] = 0x9e3779b9, 0x9e3779b9, 0x9e3779b9, 0x9e3779b9

	for i := 0; i < 4; i++ {
		mix(&h)
	}

	for i := 0; i < size; i += 8 {
		for j := 0; j < 8; j++ {
			h[j] += c.rsl[i+j]
		}
		mix(&h)
		for j := 0; j < 8; j++ {
			c.mem[i+j] = h[j]
		}
	}

	for i := 0; i < size; i += 8 {
		for j := 0; j < 8; j++ {
			h[j] += c.mem[i+j]
		}
		mix(&h)
		for j := 0; j < 8; j++ {
			c.mem[i+j] = h[j]
		}
	}

	c.generate()
	c.count = size
}

func mix(h *[8]uint32) {
	h[0] ^= h[1] << 11
	h[3] += h[0]
	h[1] += h[2]
	h[1] ^= h[2] >> 2
	h[4] += h[1]
	h[2] += h[3]
	h[2] ^= h[3] << 8
	h[5] += h[2]
	h[3] += h[4]
	h[3] ^= h[4] >> 16
	h[6] += h[3]
	h[4] += h[5]
	h[4] ^= h[5] << 10
	h[7] += h[4]
	h[5] += h[6]
	h[5] ^= h[6] >> 4
	h[0] += h[5]
	h[6] += h[7]
	h[6] ^= h[7] << 8
	h[1] += h[6]
	h[7] += h[0]
	h[7] ^= h[0] >> 9
	h[2] += h[7]
	h[0] += h[1]
}

func (c *Cipher) generate() {
	for i := 0; i < size; i++ {
		var x, y uint32
		x = c.mem[i]
		switch i & 3 {
		case 0:
			c.a ^= c.a << 13
		case 1:
			c.a ^= c.a >> 6
		case 2:
			c.a ^= c.a << 2
		case 3:
			c.a ^= c.a >> 16
		}
		c.a += c.mem[(i+128)&(size-1)]
		y = c.mem[(x>>2)&(size-1)] + c.a + c.b
		c.mem[i] = y
		c.b = c.mem[(y>>sizeLog)&(size-1)] + x
		c.rsl[i] = c.b
	}
}
