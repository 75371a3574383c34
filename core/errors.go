package core

import "errors"

// Build-time and compile-time error taxonomy (spec §7). Builder and compile
// failures are values; callers compare with errors.Is against these
// sentinels or unwrap for the offending node id via NodeError.
var (
	ErrShapeMismatch        = errors.New("vectoria: shape mismatch")
	ErrDTypeMismatch        = errors.New("vectoria: dtype mismatch")
	ErrInvalidAxis          = errors.New("vectoria: invalid axis")
	ErrInvalidPerm          = errors.New("vectoria: invalid permutation")
	ErrUnknownNode          = errors.New("vectoria: unknown node id")
	ErrGraphFrozen          = errors.New("vectoria: graph already compiled, no further insertions accepted")
	ErrNoOutput             = errors.New("vectoria: graph declares no output")
	ErrDivisorMismatch      = errors.New("vectoria: d_model not divisible by head count")
	ErrInternalExpansion    = errors.New("vectoria: expansion violated an IR invariant")
	ErrBufferUnset          = errors.New("vectoria: input buffer has not been filled since engine creation")
	ErrNotCompiled          = errors.New("vectoria: engine has not been compiled")
)

// NodeError wraps a sentinel with the node id it was raised for.
type NodeError struct {
	NodeID int32
	Err    error
}

func (e *NodeError) Error() string {
	return e.Err.Error() + ": node " + itoa(e.NodeID)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// WithNode annotates err with the offending node id.
func WithNode(nodeID int32, err error) error {
	return &NodeError{NodeID: nodeID, Err: err}
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
