package nodegraph

import "fmt"

// ErrNoGraphFile signals that the file cache holds no editor state under the requested key.
type ErrNoGraphFile struct {
	Key string
}

func (e ErrNoGraphFile) Error() string {
	return fmt.Sprintf("no graph file provided under key %s", e.Key)
}

// ErrInvalidGraph signals that the editor state could not be decoded.
type ErrInvalidGraph struct {
	Cause error
}

func (e ErrInvalidGraph) Error() string {
	return fmt.Sprintf("invalid graph file (%v)", e.Cause)
}

func (e ErrInvalidGraph) Unwrap() error {
	return e.Cause
}

// ErrUnknownNode signals that no node with the given ID exists in the root graph.
type ErrUnknownNode struct {
	NodeID string
}

func (e ErrUnknownNode) Error() string {
	return fmt.Sprintf("no node with ID %s in the root graph", e.NodeID)
}
