package session

import "sync"

// Registry tracks the one live connection per authenticated subject.
// It is keyed by subject ID on a sync.Map, so contention is per-entry;
// there is no lock spanning all connections.
type Registry struct {
	conns sync.Map // int64 -> *Client
	rooms *Rooms
}

// NewRegistry creates a registry whose unregistrations cascade into the
// given room index.
func NewRegistry(rooms *Rooms) *Registry {
	return &Registry{rooms: rooms}
}

// Register records the client as the subject's live connection. Any prior
// entry for the same subject is superseded (last-writer-wins); notifying the
// superseded connection is the transport layer's responsibility.
func (r *Registry) Register(c *Client) {
	r.conns.Store(c.SubjectID, c)
}

// Unregister removes whatever connection the subject currently has, closes
// it and purges the subject from every room. Safe to call for subjects that
// are not registered.
func (r *Registry) Unregister(subjectID int64) {
	if v, ok := r.conns.LoadAndDelete(subjectID); ok {
		v.(*Client).Close()
	}
	r.rooms.PurgeSubject(subjectID)
}

// UnregisterClient removes the subject's entry only if it still is this
// exact client. A connection superseded by a newer Register must not tear
// down the newer connection's registration or room memberships.
func (r *Registry) UnregisterClient(c *Client) {
	c.Close()
	if r.conns.CompareAndDelete(c.SubjectID, c) {
		r.rooms.PurgeSubject(c.SubjectID)
		return
	}
	// The entry is already gone when an eviction removed it before the
	// transport teardown ran. Purge again so a join that raced the
	// eviction cannot outlive the connection. When a successor client
	// holds the entry the memberships are its, so they stay.
	if _, ok := r.conns.Load(c.SubjectID); !ok {
		r.rooms.PurgeSubject(c.SubjectID)
	}
}

// Get returns the subject's live connection, if any.
func (r *Registry) Get(subjectID int64) (*Client, bool) {
	v, ok := r.conns.Load(subjectID)
	if !ok {
		return nil, false
	}
	return v.(*Client), true
}

// IsOnline reports whether the subject has an open connection.
func (r *Registry) IsOnline(subjectID int64) bool {
	c, ok := r.Get(subjectID)
	return ok && c.Open()
}

// Count returns the number of open connections.
func (r *Registry) Count() int {
	n := 0
	r.conns.Range(func(_, v any) bool {
		if v.(*Client).Open() {
			n++
		}
		return true
	})
	return n
}

// Range calls f for each registered client until f returns false.
func (r *Registry) Range(f func(c *Client) bool) {
	r.conns.Range(func(_, v any) bool {
		return f(v.(*Client))
	})
}
