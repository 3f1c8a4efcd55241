package engine

import (
	"fmt"
	"strings"
)

// ErrNoStartNode is returned when a forward run is requested without a node to start from.
var ErrNoStartNode = fmt.Errorf("no start node passed to the forward engine")

// ErrInvalidNodeOutput indicates that a calculation function did not return every declared output.
type ErrInvalidNodeOutput struct {
	NodeID      string
	NodeType    string
	MissingKeys []string
}

func (e ErrInvalidNodeOutput) Error() string {
	if len(e.MissingKeys) == 0 {
		return fmt.Sprintf("invalid output of node %s of type %s: the calculation returned no output map", e.NodeID, e.NodeType)
	}
	return fmt.Sprintf(
		"invalid output of node %s of type %s: missing output keys %s",
		e.NodeID,
		e.NodeType,
		strings.Join(e.MissingKeys, ", "),
	)
}

// ErrNodeCalculationFailed wraps an error returned by a calculation function.
type ErrNodeCalculationFailed struct {
	NodeID   string
	NodeType string
	Cause    error
}

func (e ErrNodeCalculationFailed) Error() string {
	return fmt.Sprintf("calculation of node %s of type %s failed (%v)", e.NodeID, e.NodeType, e.Cause)
}

func (e ErrNodeCalculationFailed) Unwrap() error {
	return e.Cause
}
