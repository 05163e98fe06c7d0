package rand

const (
	n         = 624
	m         = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff

	// DefaultSeed the seed of a default constructed std::mt19937
	DefaultSeed uint32 = 5489
)

// Mt19937 the 32-bit Mersenne Twister, its sequence is identical to
// C++ std::mt19937 for the same seed.
type Mt19937 struct {
	state [n]uint32
	index int
}

// NewMt19937 returns a generator seeded with seed.
func NewMt19937(seed uint32) *Mt19937 {
	mt := new(Mt19937)
	mt.Seed(seed)
	return mt
}

// Seed resets the generator state.
func (mt *Mt19937) Seed(seed uint32) {
	mt.state[0] = seed
	for i := 1; i < n; i++ {
		prev := mt.state[i-1]
		mt.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	mt.index = n
}

// Uint32 returns the next 32-bit output.
func (mt *Mt19937) Uint32() uint32 {
	if mt.index >= n {
		mt.twist()
	}
	y := mt.state[mt.index]
	mt.index++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Uint64 combines two outputs, the first one is the high half.
// It implements math/rand/v2.Source.
func (mt *Mt19937) Uint64() uint64 {
	hi := uint64(mt.Uint32())
	return hi<<32 | uint64(mt.Uint32())
}

func (mt *Mt19937) twist() {
	for i := range n {
		y := mt.state[i]&upperMask | mt.state[(i+1)%n]&lowerMask
		next := mt.state[(i+m)%n] ^ y>>1
		if y&1 != 0 {
			next ^= matrixA
		}
		mt.state[i] = next
	}
	mt.index = 0
}
