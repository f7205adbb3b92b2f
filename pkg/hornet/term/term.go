package term

import (
	"fmt"
	"strings"
)

// Kind discriminates constants from variables
type Kind uint8

const (
	// Constant names a fixed individual, e.g. Robert or T1
	Constant Kind = iota
	// Variable is a placeholder bound during unification, e.g. x or p
	Variable
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Term is a single argument of a fact: either a constant or a variable.
// The kind is fixed at construction; the lexical convention that decides
// it applies only while parsing.
type Term struct {
	Kind Kind
	Name string
}

// NewConstant builds a constant term
func NewConstant(name string) Term {
	return Term{Kind: Constant, Name: name}
}

// NewVariable builds a variable term
func NewVariable(name string) Term {
	return Term{Kind: Variable, Name: name}
}

// IsVariable reports whether the term is a variable
func (t Term) IsVariable() bool {
	return t.Kind == Variable
}

// Equal reports whether two terms have the same kind and name
func (t Term) Equal(other Term) bool {
	return t.Kind == other.Kind && t.Name == other.Name
}

func (t Term) String() string {
	return t.Name
}

// Fact is a flat atomic formula: a predicate applied to zero or more
// terms. Args never nest; a fact with variables is a pattern, a fact
// without them is ground.
type Fact struct {
	Predicate string
	Args      []Term
}

// Arity returns the number of arguments
func (f Fact) Arity() int {
	return len(f.Args)
}

// IsGround reports whether the fact contains no variables
func (f Fact) IsGround() bool {
	for _, a := range f.Args {
		if a.IsVariable() {
			return false
		}
	}
	return true
}

// Vars returns the distinct variable names in argument order
func (f Fact) Vars() []string {
	var names []string
	seen := make(map[string]bool, len(f.Args))
	for _, a := range f.Args {
		if a.IsVariable() && !seen[a.Name] {
			seen[a.Name] = true
			names = append(names, a.Name)
		}
	}
	return names
}

// Equal reports whether two facts have the same predicate and arguments
func (f Fact) Equal(other Fact) bool {
	if f.Predicate != other.Predicate || len(f.Args) != len(other.Args) {
		return false
	}
	for i, a := range f.Args {
		if !a.Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the fact in its parseable form, Name or Name(a, b).
// ParseFact(f.String()) yields f back.
func (f Fact) String() string {
	if len(f.Args) == 0 {
		return f.Predicate
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Name
	}
	return f.Predicate + "(" + strings.Join(parts, ", ") + ")"
}

// ParseError reports why a textual fact was rejected
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse fact %q: %s", e.Input, e.Reason)
}

// ParseFact reads a fact from text. Accepted forms are a bare predicate
// name, Name, or a predicate with arguments, Name(a, b). Identifiers
// are ASCII letters and digits; an argument starting with a lowercase
// letter becomes a variable, anything else a constant. Surrounding
// whitespace and whitespace around each argument is ignored.
func ParseFact(text string) (Fact, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Fact{}, &ParseError{Input: text, Reason: "empty input"}
	}

	open := strings.IndexByte(s, '(')
	if open == -1 {
		if strings.ContainsRune(s, ')') {
			return Fact{}, &ParseError{Input: text, Reason: "closing parenthesis without opening"}
		}
		if !isIdentifier(s) {
			return Fact{}, &ParseError{Input: text, Reason: "predicate is not a plain identifier"}
		}
		return Fact{Predicate: s}, nil
	}

	pred := s[:open]
	if !isIdentifier(pred) {
		return Fact{}, &ParseError{Input: text, Reason: "predicate is not a plain identifier"}
	}
	if !strings.HasSuffix(s, ")") {
		return Fact{}, &ParseError{Input: text, Reason: "missing closing parenthesis"}
	}

	inner := s[open+1 : len(s)-1]
	if strings.ContainsAny(inner, "()") {
		return Fact{}, &ParseError{Input: text, Reason: "nested parentheses are not allowed"}
	}

	if strings.TrimSpace(inner) == "" {
		return Fact{Predicate: pred, Args: []Term{}}, nil
	}

	pieces := strings.Split(inner, ",")
	args := make([]Term, 0, len(pieces))
	for _, piece := range pieces {
		name := strings.TrimSpace(piece)
		if name == "" {
			return Fact{}, &ParseError{Input: text, Reason: "empty argument"}
		}
		if !isIdentifier(name) {
			return Fact{}, &ParseError{Input: text, Reason: fmt.Sprintf("argument %q is not a plain identifier", name)}
		}
		args = append(args, classify(name))
	}
	return Fact{Predicate: pred, Args: args}, nil
}

// MustParseFact is ParseFact for known-good literals; it panics on error
func MustParseFact(text string) Fact {
	f, err := ParseFact(text)
	if err != nil {
		panic(err)
	}
	return f
}

// classify applies the lexical convention: a leading lowercase ASCII
// letter marks a variable.
func classify(name string) Term {
	if name[0] >= 'a' && name[0] <= 'z' {
		return NewVariable(name)
	}
	return NewConstant(name)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
