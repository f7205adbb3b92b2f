package kb

import (
	"fmt"
	"iter"

	"github.com/cognicore/hornet/pkg/hornet/internalerr"
	"github.com/cognicore/hornet/pkg/hornet/term"
)

// Base is an insertion-ordered set of ground facts. Matching walks
// facts in the order they were added, which keeps derivations
// reproducible. A Base is safe for concurrent readers; only one
// goroutine may add at a time.
type Base struct {
	facts []term.Fact
	index map[string]bool
}

// New builds a base from initial facts, dropping duplicates
func New(initial ...term.Fact) (*Base, error) {
	b := &Base{index: make(map[string]bool, len(initial))}
	for _, f := range initial {
		if _, err := b.Add(f); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Add inserts a ground fact. It returns false when the fact was
// already present, and an error when the fact still contains
// variables.
func (b *Base) Add(f term.Fact) (bool, error) {
	if !f.IsGround() {
		return false, fmt.Errorf("fact %s is not ground: %w", f, internalerr.ErrInvalidInput)
	}
	key := f.String()
	if b.index[key] {
		return false, nil
	}
	if b.index == nil {
		b.index = make(map[string]bool)
	}
	b.index[key] = true
	b.facts = append(b.facts, f)
	return true, nil
}

// Contains reports whether an identical ground fact is present.
// Patterns are never stored, so a fact with variables is never
// contained.
func (b *Base) Contains(f term.Fact) bool {
	if !f.IsGround() {
		return false
	}
	return b.index[f.String()]
}

// Len returns the number of stored facts
func (b *Base) Len() int {
	return len(b.facts)
}

// Facts returns a copy of the stored facts in insertion order
func (b *Base) Facts() []term.Fact {
	out := make([]term.Fact, len(b.facts))
	copy(out, b.facts)
	return out
}

// All yields the stored facts in insertion order. The base must not
// be mutated while iterating.
func (b *Base) All() iter.Seq[term.Fact] {
	return func(yield func(term.Fact) bool) {
		for _, f := range b.facts {
			if !yield(f) {
				return
			}
		}
	}
}
