package bc

import (
	"errors"
	"fmt"
)

// Validation failures. Every parse and validation error of this package
// wraps one of these, so callers can test with errors.Is. Resolving against
// a mesh that was never built returns mesh.ErrNotGenerated instead.
var (
	// ErrNodeOutOfBounds indicates an explicit node index outside [0, NumNodes).
	ErrNodeOutOfBounds = errors.New("bc: node index out of bounds")

	// ErrUnsupportedSelector indicates an unknown edge selector name.
	ErrUnsupportedSelector = errors.New("bc: unsupported selector")

	// ErrUnsupportedDof indicates a dof/direction token other than x or y.
	ErrUnsupportedDof = errors.New("bc: unsupported dof/direction")

	// ErrUnsupportedLoadKind indicates a load type other than point or edge.
	ErrUnsupportedLoadKind = errors.New("bc: unsupported load type")

	// ErrMissingField indicates an entry lacks a required key.
	ErrMissingField = errors.New("bc: missing required field")

	// ErrUnknownField indicates an entry carries a key outside the schema.
	ErrUnknownField = errors.New("bc: unknown field")

	// ErrDuplicateField indicates a key given twice in the same mapping.
	ErrDuplicateField = errors.New("bc: duplicate field")

	// ErrConflictingSelection indicates an entry with both nodes and selector.
	ErrConflictingSelection = errors.New("bc: nodes and selector are mutually exclusive")

	// ErrMalformed indicates YAML of the wrong shape, such as a scalar where
	// a list or mapping belongs, or an out-of-range enum value.
	ErrMalformed = errors.New("bc: malformed boundary conditions")

	// ErrLegacySchema indicates a boundary_conditions block written in the
	// constraints/loads.point/loads.edge layout, which is not accepted.
	ErrLegacySchema = errors.New("bc: legacy boundary condition schema")

	// ErrEmptySelection indicates a load selected no nodes while the policy is
	// OnEmptyError.
	ErrEmptySelection = errors.New("bc: load selects no nodes")
)

var sentinels = []error{
	ErrNodeOutOfBounds, ErrUnsupportedSelector, ErrUnsupportedDof, ErrUnsupportedLoadKind,
	ErrMissingField, ErrUnknownField, ErrDuplicateField, ErrConflictingSelection,
	ErrMalformed, ErrLegacySchema, ErrEmptySelection,
}

func wrapsSentinel(err error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// ValidationError locates a failure at one entry of the specification.
type ValidationError struct {
	Section string // "fixed" or "loads"
	Index   int    // position of the entry within its section
	Line    int    // YAML source line, 0 when the Spec was built in code
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s[%d] (line %d): %v", e.Section, e.Index, e.Line, e.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", e.Section, e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
