package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// RoomIndex maintains the two room families of the tracking fan-out:
// organization rooms (admins and staff of one org) and delivery watch rooms
// (everyone following one delivery user's movements).
//
// Rooms are created lazily on first join and deleted when their last member
// leaves; an unknown key always reads as an empty room. Reverse indexes make
// DropConnection exact without the caller knowing what the connection had
// joined.
type RoomIndex struct {
	mu       sync.RWMutex
	orgs     map[string]map[uuid.UUID]struct{} // org id -> members
	watches  map[string]map[uuid.UUID]struct{} // delivery user id -> watchers
	orgOf    map[uuid.UUID]string              // connection -> joined org
	watching map[uuid.UUID]map[string]struct{} // connection -> watched delivery users
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		orgs:     make(map[string]map[uuid.UUID]struct{}),
		watches:  make(map[string]map[uuid.UUID]struct{}),
		orgOf:    make(map[uuid.UUID]string),
		watching: make(map[uuid.UUID]map[string]struct{}),
	}
}

// JoinOrganization adds a connection to an organization room. A connection
// is a member of at most one org room; joining another leaves the first.
func (rooms *RoomIndex) JoinOrganization(orgID string, connID uuid.UUID) {
	if orgID == "" {
		return
	}
	rooms.mu.Lock()
	defer rooms.mu.Unlock()

	if prev, ok := rooms.orgOf[connID]; ok {
		if prev == orgID {
			return
		}
		rooms.leaveOrgLocked(prev, connID)
	}

	members, ok := rooms.orgs[orgID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		rooms.orgs[orgID] = members
	}
	members[connID] = struct{}{}
	rooms.orgOf[connID] = orgID
}

// LeaveOrganization removes a connection from an organization room.
// Leaving a room the connection is not in is a no-op.
func (rooms *RoomIndex) LeaveOrganization(orgID string, connID uuid.UUID) {
	rooms.mu.Lock()
	defer rooms.mu.Unlock()
	rooms.leaveOrgLocked(orgID, connID)
}

// JoinDeliveryWatch subscribes a connection to one delivery user's updates.
func (rooms *RoomIndex) JoinDeliveryWatch(deliveryUserID string, connID uuid.UUID) {
	if deliveryUserID == "" {
		return
	}
	rooms.mu.Lock()
	defer rooms.mu.Unlock()

	watchers, ok := rooms.watches[deliveryUserID]
	if !ok {
		watchers = make(map[uuid.UUID]struct{})
		rooms.watches[deliveryUserID] = watchers
	}
	watchers[connID] = struct{}{}

	watched, ok := rooms.watching[connID]
	if !ok {
		watched = make(map[string]struct{})
		rooms.watching[connID] = watched
	}
	watched[deliveryUserID] = struct{}{}
}

// LeaveDeliveryWatch unsubscribes a connection from one delivery user.
// Unknown keys and repeated leaves are no-ops.
func (rooms *RoomIndex) LeaveDeliveryWatch(deliveryUserID string, connID uuid.UUID) {
	rooms.mu.Lock()
	defer rooms.mu.Unlock()
	rooms.leaveWatchLocked(deliveryUserID, connID)
}

// MembersOf returns a copy of an organization room's member set. Unknown
// org ids read as empty.
func (rooms *RoomIndex) MembersOf(orgID string) []uuid.UUID {
	rooms.mu.RLock()
	defer rooms.mu.RUnlock()
	return copyIDSet(rooms.orgs[orgID])
}

// WatchersOf returns a copy of a delivery watch room's member set. Unknown
// user ids read as empty.
func (rooms *RoomIndex) WatchersOf(deliveryUserID string) []uuid.UUID {
	rooms.mu.RLock()
	defer rooms.mu.RUnlock()
	return copyIDSet(rooms.watches[deliveryUserID])
}

// DropConnection removes a connection from its org room and from every
// watch room it joined. Called exactly once per finalized connection, but
// safe to call again.
func (rooms *RoomIndex) DropConnection(connID uuid.UUID) {
	rooms.mu.Lock()
	defer rooms.mu.Unlock()

	if orgID, ok := rooms.orgOf[connID]; ok {
		rooms.leaveOrgLocked(orgID, connID)
	}
	for deliveryUserID := range rooms.watching[connID] {
		rooms.leaveWatchLocked(deliveryUserID, connID)
	}
}

// Counts reports the number of non-empty org and watch rooms.
func (rooms *RoomIndex) Counts() (orgRooms, watchRooms int) {
	rooms.mu.RLock()
	defer rooms.mu.RUnlock()
	return len(rooms.orgs), len(rooms.watches)
}

func (rooms *RoomIndex) leaveOrgLocked(orgID string, connID uuid.UUID) {
	members, ok := rooms.orgs[orgID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(rooms.orgs, orgID)
	}
	if rooms.orgOf[connID] == orgID {
		delete(rooms.orgOf, connID)
	}
}

func (rooms *RoomIndex) leaveWatchLocked(deliveryUserID string, connID uuid.UUID) {
	watchers, ok := rooms.watches[deliveryUserID]
	if ok {
		delete(watchers, connID)
		if len(watchers) == 0 {
			delete(rooms.watches, deliveryUserID)
		}
	}
	watched, ok := rooms.watching[connID]
	if ok {
		delete(watched, deliveryUserID)
		if len(watched) == 0 {
			delete(rooms.watching, connID)
		}
	}
}

func copyIDSet(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
