package graph

import "github.com/google/uuid"

// Connection is a directed edge from an output interface to an input interface. Its endpoints never change; replace
// a connection instead of mutating it.
type Connection struct {
	id         string
	from       *NodeInterface
	to         *NodeInterface
	dummy      bool
	destructed bool
}

// NewConnection constructs a live connection and increments the connection count of both endpoints.
func NewConnection(from *NodeInterface, to *NodeInterface) *Connection {
	c := &Connection{
		id:   uuid.NewString(),
		from: from,
		to:   to,
	}
	from.setConnectionCount(from.connectionCount + 1)
	to.setConnectionCount(to.connectionCount + 1)
	return c
}

// NewDummyConnection describes a proposed edge. It does not touch the connection counts of its endpoints.
func NewDummyConnection(from *NodeInterface, to *NodeInterface) *Connection {
	return &Connection{
		id:    uuid.NewString(),
		from:  from,
		to:    to,
		dummy: true,
	}
}

// ID returns the connection ID.
func (c *Connection) ID() string {
	return c.id
}

// From returns the output-side endpoint.
func (c *Connection) From() *NodeInterface {
	return c.from
}

// To returns the input-side endpoint.
func (c *Connection) To() *NodeInterface {
	return c.to
}

// IsDummy returns true for proposed edges.
func (c *Connection) IsDummy() bool {
	return c.dummy
}

// Destructed returns true once the connection has been removed.
func (c *Connection) Destructed() bool {
	return c.destructed
}

// destruct decrements the endpoint counts once.
func (c *Connection) destruct() {
	if c.dummy || c.destructed {
		return
	}
	c.destructed = true
	c.from.setConnectionCount(c.from.connectionCount - 1)
	c.to.setConnectionCount(c.to.connectionCount - 1)
}
