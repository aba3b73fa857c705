package triggerbox

// PRNG is a small, deterministic 32-bit generator used for follow-action
// selection. It must be reproducible given the same seed so that
// follow-action tests can assert exact sequences, which rules out
// math/rand's global source or anything that mixes in wall-clock time.
//
// This is a PCG32 (permuted congruential generator, XSH-RR variant):
// cheap, allocation-free, and good enough statistically for picking among
// a handful of trigger slots.
type PRNG struct {
	state uint64
	inc   uint64
}

const pcgMultiplier = 6364136223846793005

// NewPRNG seeds a generator. Two PRNGs created with the same seed produce
// identical sequences.
func NewPRNG(seed uint64) *PRNG {
	p := &PRNG{inc: (seed << 1) | 1}
	p.state = p.state*pcgMultiplier + p.inc
	p.state += seed
	p.state = p.state*pcgMultiplier + p.inc
	return p
}

func (p *PRNG) next() uint32 {
	old := p.state
	p.state = old*pcgMultiplier + p.inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((32 - rot) & 31))
}

// Rand returns a uniformly distributed integer in [0, bound). Rand(0)
// returns 0.
func (p *PRNG) Rand(bound uint32) uint32 {
	if bound == 0 {
		return 0
	}
	// Avoid modulo bias by rejecting draws in the remainder region.
	threshold := -bound % bound
	for {
		r := p.next()
		if r >= threshold {
			return r % bound
		}
	}
}

// Percent returns a uniformly distributed integer in [0, 99], used to
// choose between the two follow-action slots against a 0-100 probability.
func (p *PRNG) Percent() int {
	return int(p.Rand(100))
}
