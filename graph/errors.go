package graph

import (
	"errors"
	"fmt"
)

// ErrInterfaceConnectedWithoutGraph is returned when a connected interface is removed from a node that is not placed
// in a graph, so its connections cannot be removed.
var ErrInterfaceConnectedWithoutGraph = errors.New("interface is connected but the node is not placed in a graph")

// ErrTemplateCorrupted indicates that a template references an ID that none of its nodes, interfaces, or connections
// declares.
type ErrTemplateCorrupted struct {
	TemplateID string
	ID         string
}

func (e ErrTemplateCorrupted) Error() string {
	return fmt.Sprintf("template %s is corrupted: unable to map ID %s", e.TemplateID, e.ID)
}

// ErrUnknownInterface indicates that an interface ID could not be resolved.
type ErrUnknownInterface struct {
	InterfaceID string
	Reason      string
}

func (e ErrUnknownInterface) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unknown interface %s", e.InterfaceID)
	}
	return fmt.Sprintf("unknown interface %s (%s)", e.InterfaceID, e.Reason)
}
