package logic

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidSourceKind = errors.New("invalid input source kind")

// SourceKind tags what an InputRef points at.
type SourceKind int

const (
	None SourceKind = iota
	Oscillator
	Block
)

func (k SourceKind) String() string {
	switch k {
	case None:
		return "none"
	case Oscillator:
		return "oscillator"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// ParseSourceKind accepts "osc"/"oscillator", "block"/"logic" and "none".
func ParseSourceKind(name string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "osc", "oscillator":
		return Oscillator, nil
	case "block", "logic", "logic-block":
		return Block, nil
	case "", "none":
		return None, nil
	}
	return None, errors.Wrapf(ErrInvalidSourceKind, "%q", name)
}

// InputRef is a stable handle to an upstream entity: a kind tag plus an
// index, resolved on every evaluation.
type InputRef struct {
	Kind SourceKind
	ID   int
}

// Osc returns a reference to oscillator id.
func Osc(id int) InputRef { return InputRef{Kind: Oscillator, ID: id} }

// Gate returns a reference to logic block id.
func Gate(id int) InputRef { return InputRef{Kind: Block, ID: id} }

// IsSet reports whether the reference points at anything.
func (r InputRef) IsSet() bool { return r.Kind == Oscillator || r.Kind == Block }

func (r InputRef) String() string {
	if !r.IsSet() {
		return "none"
	}
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Resolver looks up the current boolean value behind a reference.
type Resolver interface {
	Resolve(ref InputRef) (value bool, ok bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref InputRef) (bool, bool)

func (f ResolverFunc) Resolve(ref InputRef) (bool, bool) { return f(ref) }

// Block is a purely combinational two-input gate.
type Block struct {
	id        int
	operation Operation
	input1    InputRef
	input2    InputRef
	result    bool
	previous  bool
}

// NewBlock returns an unwired AND block.
func NewBlock(id int) *Block {
	return &Block{id: id, operation: AND}
}

func (b *Block) ID() int { return b.id }

func (b *Block) Operation() Operation { return b.operation }

// SetOperation changes the gate. Values outside the six operations are
// rejected without touching the block.
func (b *Block) SetOperation(op Operation) error {
	if !op.Valid() {
		return errors.Wrapf(ErrInvalidOperation, "block %d: got %d", b.id, op)
	}
	b.operation = op
	return nil
}

// SetInputs stores the two upstream links. Existence of the referenced
// entities is checked by the owner, not here.
func (b *Block) SetInputs(a, c InputRef) {
	b.input1 = a
	b.input2 = c
}

func (b *Block) Inputs() (InputRef, InputRef) { return b.input1, b.input2 }

// Calculate reads both inputs through r and applies the operation. When a
// link is unset or does not resolve the block returns false and keeps its
// cached result.
func (b *Block) Calculate(r Resolver) bool {
	if !b.input1.IsSet() || !b.input2.IsSet() || r == nil {
		return false
	}
	x, ok := r.Resolve(b.input1)
	if !ok {
		return false
	}
	y, ok := r.Resolve(b.input2)
	if !ok {
		return false
	}

	b.previous = b.result
	b.result = b.operation.Apply(x, y)
	return b.result
}

// Result is the value cached by the last successful Calculate.
func (b *Block) Result() bool { return b.result }

// Previous is the result before the last successful Calculate. Nothing
// reads it yet; it is kept for edge-triggered blocks.
func (b *Block) Previous() bool { return b.previous }
