package zmachine

import "math/rand"

// randomSource backs the `random` opcode. A positive argument draws
// from a PRNG; zero reseeds it from entropy ("random mode"); a
// negative argument reseeds it to a fixed, repeatable sequence
// (used by testing tools that need deterministic playthroughs).
type randomSource struct {
	rnd *rand.Rand
}

func newRandomSource() *randomSource {
	return &randomSource{rnd: rand.New(rand.NewSource(1))}
}

// next implements the three `random` opcode modes documented by the
// standard: range >= 1 returns a uniform draw from [1, range];
// range == 0 reseeds randomly and returns 0; range < 0 reseeds to a
// fixed, predictable sequence and returns 0.
func (r *randomSource) next(rangeArg int16) uint16 {
	switch {
	case rangeArg > 0:
		return uint16(r.rnd.Intn(int(rangeArg)) + 1)
	case rangeArg == 0:
		r.rnd = rand.New(rand.NewSource(rand.Int63()))
		return 0
	default:
		r.rnd = rand.New(rand.NewSource(int64(rangeArg)))
		return 0
	}
}
