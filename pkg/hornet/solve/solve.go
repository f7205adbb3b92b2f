package solve

import (
	"iter"

	"github.com/cognicore/hornet/pkg/hornet/kb"
	"github.com/cognicore/hornet/pkg/hornet/term"
	"github.com/cognicore/hornet/pkg/hornet/unify"
)

// Solutions enumerates every substitution that satisfies all premises
// against the base, growing from an initial substitution. Premises are
// matched left to right and candidate facts are tried in base
// insertion order, so the sequence is deterministic. The sequence is
// lazy: an abandoned iteration does no further matching, and ranging
// again restarts from the beginning.
//
// With no premises the sequence yields the initial substitution once.
func Solutions(premises []term.Fact, base *kb.Base, initial unify.Substitution) iter.Seq[unify.Substitution] {
	return func(yield func(unify.Substitution) bool) {
		backtrack(premises, base, initial, yield)
	}
}

// backtrack reports false when the consumer stopped the iteration
func backtrack(premises []term.Fact, base *kb.Base, sub unify.Substitution, yield func(unify.Substitution) bool) bool {
	if len(premises) == 0 {
		return yield(sub)
	}

	first, rest := premises[0], premises[1:]
	for fact := range base.All() {
		next, ok := unify.Unify(first, fact, sub)
		if !ok {
			continue
		}
		if !backtrack(rest, base, next, yield) {
			return false
		}
	}
	return true
}
