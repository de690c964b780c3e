package noise

import "math/bits"

// Philox4x64-10 (Salmon et al., SC'11). The output block is a pure function
// of the counter and key, so any number of goroutines can draw from it
// without sharing state.

const (
	philoxM0 = 0xD2E7470EE14C6C93
	philoxM1 = 0xCA5A826395121157
	philoxW0 = 0x9E3779B97F4A7C15
	philoxW1 = 0xBB67AE8584CAA73B

	philoxRounds = 10
)

type block [4]uint64

type key [2]uint64

func philoxRound(ctr block, k key) block {
	hi0, lo0 := bits.Mul64(philoxM0, ctr[0])
	hi1, lo1 := bits.Mul64(philoxM1, ctr[2])
	return block{hi1 ^ ctr[1] ^ k[0], lo1, hi0 ^ ctr[3] ^ k[1], lo0}
}

func philox(ctr block, k key) block {
	for i := 0; i < philoxRounds; i++ {
		if i > 0 {
			k[0] += philoxW0
			k[1] += philoxW1
		}
		ctr = philoxRound(ctr, k)
	}
	return ctr
}
