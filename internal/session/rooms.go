package session

import "sync"

// Rooms indexes, per room, the set of subjects currently present. Rooms are
// created lazily on first join and garbage-collected when their member set
// empties. Locking is per-room; the outer sync.Map keeps lookups for
// unrelated rooms from contending.
type Rooms struct {
	m sync.Map // int64 -> *memberSet
}

// NewRooms creates an empty room index.
func NewRooms() *Rooms {
	return &Rooms{}
}

// memberSet guards one room's membership. Once a set empties it is marked
// dead and unlinked from the index; a concurrent Join that raced the removal
// observes dead and retries against a fresh set.
type memberSet struct {
	mu      sync.Mutex
	members map[int64]struct{}
	dead    bool
}

func newMemberSet() *memberSet {
	return &memberSet{members: make(map[int64]struct{})}
}

// add returns false if the set is dead and the caller must retry.
func (s *memberSet) add(subjectID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return false
	}
	s.members[subjectID] = struct{}{}
	return true
}

// remove deletes the subject and reports whether the set emptied and was
// marked dead.
func (s *memberSet) remove(subjectID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return false
	}
	delete(s.members, subjectID)
	if len(s.members) == 0 {
		s.dead = true
		return true
	}
	return false
}

func (s *memberSet) snapshot() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	return out
}

// Join adds the subject to the room. Idempotent: joining twice has the same
// effect as once.
func (r *Rooms) Join(roomID, subjectID int64) {
	for {
		v, _ := r.m.LoadOrStore(roomID, newMemberSet())
		if v.(*memberSet).add(subjectID) {
			return
		}
		// The set died under a concurrent removal; unlink and retry.
		r.m.CompareAndDelete(roomID, v)
	}
}

// Leave removes the subject from the room. Leaving a room the subject is not
// in, or an unknown room, is a no-op.
func (r *Rooms) Leave(roomID, subjectID int64) {
	v, ok := r.m.Load(roomID)
	if !ok {
		return
	}
	if v.(*memberSet).remove(subjectID) {
		r.m.CompareAndDelete(roomID, v)
	}
}

// MembersOf returns the subjects currently in the room. Unknown rooms yield
// an empty slice, never an error.
func (r *Rooms) MembersOf(roomID int64) []int64 {
	v, ok := r.m.Load(roomID)
	if !ok {
		return nil
	}
	return v.(*memberSet).snapshot()
}

// PurgeSubject removes the subject from every room it belongs to. Invoked by
// the registry when a connection goes away.
func (r *Rooms) PurgeSubject(subjectID int64) {
	r.m.Range(func(k, v any) bool {
		if v.(*memberSet).remove(subjectID) {
			r.m.CompareAndDelete(k, v)
		}
		return true
	})
}

// Count returns the number of rooms with at least one member.
func (r *Rooms) Count() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
