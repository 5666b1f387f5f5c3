package logic

import (
	"strings"

	"github.com/pkg/errors"
)

var ErrInvalidOperation = errors.New("invalid logic operation")

// Operation is one of the six two-input boolean gates.
type Operation int

const (
	AND Operation = iota
	OR
	XOR
	NAND
	NOR
	XNOR
)

var operationNames = [...]string{"AND", "OR", "XOR", "NAND", "NOR", "XNOR"}

// firmwarePrefix is the spelling used by the device control protocol,
// e.g. LOGICAL_OP_XOR.
const firmwarePrefix = "LOGICAL_OP_"

// Operations lists every valid operation in declaration order.
func Operations() []Operation {
	return []Operation{AND, OR, XOR, NAND, NOR, XNOR}
}

func (op Operation) Valid() bool {
	return op >= AND && op <= XNOR
}

func (op Operation) String() string {
	if !op.Valid() {
		return "INVALID"
	}
	return operationNames[op]
}

// FirmwareName returns the LOGICAL_OP_* name of the operation.
func (op Operation) FirmwareName() string {
	return firmwarePrefix + op.String()
}

// Next returns the following operation, wrapping from XNOR back to AND.
func (op Operation) Next() Operation {
	return (op + 1) % Operation(len(operationNames))
}

// ParseOperation accepts both "XOR" and "LOGICAL_OP_XOR", case-insensitive.
func ParseOperation(name string) (Operation, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, firmwarePrefix)
	for i, s := range operationNames {
		if s == n {
			return Operation(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidOperation, "%q", name)
}

// Apply evaluates the gate with the canonical truth tables.
//
//	AND  a && b
//	OR   a || b
//	XOR  a != b
//	NAND !(a && b)
//	NOR  !(a || b)
//	XNOR a == b
func (op Operation) Apply(a, b bool) bool {
	switch op {
	case AND:
		return a && b
	case OR:
		return a || b
	case XOR:
		return a != b
	case NAND:
		return !(a && b)
	case NOR:
		return !(a || b)
	case XNOR:
		return a == b
	default:
		return false
	}
}
