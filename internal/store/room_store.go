package store

import (
	"crypto/rand"
	"slices"
	"sync"

	"github.com/pairline/signal-service/internal/domain"
)

const (
	// maxOccupants caps a room at one pair.
	maxOccupants = 2

	roomIDPrefix    = "room_"
	roomIDSuffixLen = 12
	roomIDAlphabet  = "abcdefghijklmnopqrstuvwxyz234567"
)

type room struct {
	id  string
	seq uint64 // creation order, used as the joinable-room tie-break

	// Occupants keyed by connection id (kept in join order); removal is a
	// direct id match, never a composite-value comparison.
	occupants []string
}

// RoomStore is the authoritative mapping of room id to occupants, plus the
// reverse index connection id -> room id used by the reconciler. All mutation
// goes through its lock; callers never see the raw maps.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	roomOf  map[string]string
	nextSeq uint64
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:  make(map[string]*room),
		roomOf: make(map[string]string),
	}
}

// FindJoinableRoom returns a room currently holding exactly one occupant. The
// oldest such room wins, which keeps selection deterministic regardless of map
// iteration order.
func (s *RoomStore) FindJoinableRoom() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := s.findJoinableLocked()
	if r == nil {
		return "", false
	}
	return r.id, true
}

func (s *RoomStore) findJoinableLocked() *room {
	var best *room
	for _, r := range s.rooms {
		if len(r.occupants) != 1 {
			continue
		}
		if best == nil || r.seq < best.seq {
			best = r
		}
	}
	return best
}

// CreateRoom allocates an empty room under a fresh id.
func (s *RoomStore) CreateRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked().id
}

func (s *RoomStore) createLocked() *room {
	r := &room{id: s.newRoomIDLocked(), seq: s.nextSeq}
	s.nextSeq++
	s.rooms[r.id] = r
	return r
}

// newRoomIDLocked draws a random id and re-rolls while it collides with an
// active room, so an active id is never reused.
func (s *RoomStore) newRoomIDLocked() string {
	for {
		id := roomIDPrefix + randomSuffix(roomIDSuffixLen)
		if _, ok := s.rooms[id]; !ok {
			return id
		}
	}
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i := range b {
		b[i] = roomIDAlphabet[int(b[i])%len(roomIDAlphabet)]
	}
	return string(b)
}

func (s *RoomStore) AddOccupant(roomID, connectionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(roomID, connectionID)
}

func (s *RoomStore) addLocked(roomID, connectionID string) (int, error) {
	r, ok := s.rooms[roomID]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}
	if len(r.occupants) >= maxOccupants {
		return 0, domain.ErrRoomFull
	}
	r.occupants = append(r.occupants, connectionID)
	s.roomOf[connectionID] = roomID

	return len(r.occupants), nil
}

// RemoveOccupant is a no-op when the connection is not present. Draining the
// last occupant deletes the room: a zero-occupant room is never observable.
func (s *RoomStore) RemoveOccupant(roomID, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(roomID, connectionID)
}

func (s *RoomStore) removeLocked(roomID, connectionID string) {
	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	i := slices.Index(r.occupants, connectionID)
	if i < 0 {
		return
	}
	r.occupants = slices.Delete(r.occupants, i, i+1)
	delete(s.roomOf, connectionID)

	if len(r.occupants) == 0 {
		delete(s.rooms, roomID)
	}
}

// OccupantsOf returns the room's occupant ids in join order, or ok=false when
// the room does not exist.
func (s *RoomStore) OccupantsOf(roomID string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	return slices.Clone(r.occupants), true
}

func (s *RoomStore) RoomOf(connectionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.roomOf[connectionID]
	return id, ok
}

// Removal describes the outcome of clearing a connection's membership.
type Removal struct {
	RoomID    string
	Survivors []string // peers released by the dissolution; empty for a solo room
}

// Assignment describes the outcome of placing a connection into a room.
type Assignment struct {
	RoomID    string
	Occupants []string
	Count     int
	Evicted   *Removal // membership cleared from a prior room, if any
}

// Assign places a connection into a joinable room, creating one when none
// exists, as a single critical section: two racing joins can never produce a
// three-occupant room or a lost reverse-index entry. Any prior membership is
// cleared first through the same path the reconciler uses.
func (s *RoomStore) Assign(connectionID string) Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted *Removal
	if rem, ok := s.removeConnLocked(connectionID); ok {
		evicted = &rem
	}

	r := s.findJoinableLocked()
	if r == nil {
		r = s.createLocked()
	}

	// Cannot fail: the room was just observed under this same lock with a
	// free slot.
	count, _ := s.addLocked(r.id, connectionID)

	return Assignment{
		RoomID:    r.id,
		Occupants: slices.Clone(r.occupants),
		Count:     count,
		Evicted:   evicted,
	}
}

// Remove clears a connection's membership atomically and reports who was left
// behind. ok is false when the connection was in no room.
func (s *RoomStore) Remove(connectionID string) (Removal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeConnLocked(connectionID)
}

// removeConnLocked takes a connection out of its room. A broken pair
// dissolves entirely: the survivor is released too and the room deleted, so
// the survivor re-enters matchmaking with a fresh join instead of waiting in
// a half room it never chose.
func (s *RoomStore) removeConnLocked(connectionID string) (Removal, bool) {
	roomID, ok := s.roomOf[connectionID]
	if !ok {
		return Removal{}, false
	}
	s.removeLocked(roomID, connectionID)

	rem := Removal{RoomID: roomID}
	if r, ok := s.rooms[roomID]; ok {
		rem.Survivors = slices.Clone(r.occupants)
		for _, id := range rem.Survivors {
			s.removeLocked(roomID, id)
		}
	}
	return rem, true
}

// RoomCount reports the number of live rooms.
func (s *RoomStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
