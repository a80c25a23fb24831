package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/telecare/session-server/internal/proto"
)

// eventBuffer bounds the per-client outbound queue. A full buffer drops the
// envelope rather than blocking the sender: one stalled client must never
// delay delivery to others.
const eventBuffer = 16

// Client is one live duplex channel for exactly one authenticated subject.
// The transport layer owns the socket; everything here is in-memory state.
type Client struct {
	SubjectID int64
	Role      string
	ConnID    string

	// Events carries envelopes to the transport write loop. The channel is
	// never closed; the write loop exits via its context instead, so
	// concurrent sends after Close stay safe.
	Events chan *proto.Envelope

	closed     atomic.Bool
	closeHook  atomic.Value // func()
	lastActive atomic.Int64
}

// NewClient constructs a client for an authenticated subject.
func NewClient(subjectID int64, role string) *Client {
	c := &Client{
		SubjectID: subjectID,
		Role:      role,
		ConnID:    uuid.NewString(),
		Events:    make(chan *proto.Envelope, eventBuffer),
	}
	c.Touch()
	return c
}

// Send queues an envelope for delivery. Returns false if the client is
// closed or its buffer is full; it never blocks.
func (c *Client) Send(env *proto.Envelope) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.Events <- env:
		return true
	default:
		return false
	}
}

// OnClose registers a hook invoked exactly once when the client is closed.
// The transport layer registers its context cancel here so that eviction
// from the registry also terminates the socket's read and write loops.
func (c *Client) OnClose(fn func()) {
	c.closeHook.Store(fn)
}

// Close marks the client closed and fires the close hook. Idempotent.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if fn, ok := c.closeHook.Load().(func()); ok && fn != nil {
		fn()
	}
}

// Open reports whether the client has not been closed.
func (c *Client) Open() bool {
	return !c.closed.Load()
}

// Touch records activity on the connection.
func (c *Client) Touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the most recent activity.
func (c *Client) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}
