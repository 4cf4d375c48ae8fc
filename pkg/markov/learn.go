package markov

// Learn records every overlapping context/next-token pair of one utterance.
//
// Besides the full two-token context, each token is also indexed under the
// shorter (Sentinel, previous) context so generation can resume from a
// one-word seed. The final context is closed with a Sentinel continuation.
// Learn reports whether anything was recorded.
func (c *Chain) Learn(tokens []string, tags Tags) bool {
	first, second := Sentinel, Sentinel
	recorded := false

	for _, w := range tokens {
		if second != Sentinel {
			recorded = c.Add(second, Key{Sentinel, first}, tags) || recorded
		}
		recorded = c.Add(w, Key{first, second}, tags) || recorded
		first, second = second, w
	}
	if second != Sentinel {
		recorded = c.Add(second, Key{Sentinel, first}, tags) || recorded
	}
	recorded = c.Add(Sentinel, Key{first, second}, tags) || recorded

	return recorded
}
