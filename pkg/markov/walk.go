package markov

import "math/rand/v2"

// DefaultMaxSteps bounds the number of generated tokens per walk.
const DefaultMaxSteps = 100

// Rand picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// GlobalRand uses the goroutine-safe top-level math/rand/v2 source.
var GlobalRand Rand = globalRand{}

// WalkOptions parameterize a walk over the chain.
type WalkOptions struct {
	// Seed tokens prefix the output; the last two become the starting context.
	Seed []string
	// Seeded marks that a seed phrase was supplied, even if it produced no tokens.
	Seeded bool
	Filter Filter
	// MaxSteps caps the number of generated tokens. Zero means DefaultMaxSteps.
	MaxSteps int
	Rand     Rand
}

// Walk is the outcome of a walk.
type Walk struct {
	// Words holds the seed tokens followed by the generated tokens.
	Words []string
	// Generated counts the tokens appended after the seed.
	Generated int
	// Stranded is set when a seeded walk found no usable context, even after
	// relaxing it to a one-word context.
	Stranded bool
}

// Walk samples the chain starting from the seed context (or the utterance
// boundary) until it reaches a Sentinel, runs out of candidates, or hits MaxSteps.
func (c *Chain) Walk(opts WalkOptions) Walk {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = GlobalRand
	}

	words := append([]string(nil), opts.Seed...)
	ctx := StartKey

	if opts.Seeded {
		ctx = seedKey(words)
		if len(Keep(c.Candidates(ctx), opts.Filter)) == 0 {
			ctx.First = Sentinel
			if len(Keep(c.Candidates(ctx), opts.Filter)) == 0 {
				return Walk{Words: words, Stranded: true}
			}
		}
	}

	generated := 0
	for ; generated < maxSteps; generated++ {
		valid := Keep(c.Candidates(ctx), opts.Filter)
		if len(valid) == 0 {
			break
		}
		next := valid[rnd.IntN(len(valid))]
		if next.Word == Sentinel {
			break
		}
		words = append(words, next.Word)
		ctx = Key{ctx.Second, next.Word}
	}

	return Walk{Words: words, Generated: generated}
}

// seedKey builds a context from the last two seed tokens, padding with Sentinel.
func seedKey(seed []string) Key {
	k := StartKey
	if n := len(seed); n >= 1 {
		k.Second = seed[n-1]
		if n >= 2 {
			k.First = seed[n-2]
		}
	}
	return k
}
