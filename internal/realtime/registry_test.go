package realtime

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
)

func deliveryIdent(userID, orgID string) user.Identity {
	return user.Identity{
		UserID:         userID,
		Email:          userID + "@fleet.example",
		Role:           user.RoleDelivery,
		OrganizationID: orgID,
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()

	first := reg.Register(id)
	if first.State != StateUnauthenticated {
		t.Fatalf("fresh connection state = %s", first.State)
	}

	if _, err := reg.SetIdentity(id, deliveryIdent("d1", "org1")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	again := reg.Register(id)
	if again.State != StateAuthenticated {
		t.Errorf("re-register reset the session: state = %s", again.State)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
}

func TestSetIdentityTransitionsAndIndexes(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	reg.Register(id)

	conn, err := reg.SetIdentity(id, deliveryIdent("d1", "org1"))
	if err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if conn.State != StateAuthenticated || conn.UserID() != "d1" {
		t.Fatalf("after SetIdentity: state=%s user=%s", conn.State, conn.UserID())
	}
	if got := reg.ByUser("d1"); len(got) != 1 {
		t.Fatalf("ByUser(d1) = %d connections, want 1", len(got))
	}

	// re-auth as a different user moves the index entry
	if _, err := reg.SetIdentity(id, deliveryIdent("d2", "org1")); err != nil {
		t.Fatalf("re-auth: %v", err)
	}
	if got := reg.ByUser("d1"); len(got) != 0 {
		t.Errorf("stale index entry for d1: %d connections", len(got))
	}
	if got := reg.ByUser("d2"); len(got) != 1 {
		t.Errorf("ByUser(d2) = %d connections, want 1", len(got))
	}

	if _, err := reg.SetIdentity(uuid.New(), deliveryIdent("d3", "org1")); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("SetIdentity on unknown id: err = %v", err)
	}
}

func TestMarkTrackingRequiresAuthentication(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	reg.Register(id)

	if _, err := reg.MarkTracking(id, true); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("MarkTracking before auth: err = %v", err)
	}

	if _, err := reg.SetIdentity(id, deliveryIdent("d1", "org1")); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	conn, err := reg.MarkTracking(id, true)
	if err != nil {
		t.Fatalf("MarkTracking: %v", err)
	}
	if conn.State != StateTracking {
		t.Errorf("state = %s, want %s", conn.State, StateTracking)
	}

	conn, err = reg.MarkTracking(id, false)
	if err != nil {
		t.Fatalf("MarkTracking(false): %v", err)
	}
	if conn.State != StateAuthenticated {
		t.Errorf("state after stop = %s, want %s", conn.State, StateAuthenticated)
	}
}

func TestRemoveReturnsLastLiveState(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	reg.Register(id)
	reg.SetIdentity(id, deliveryIdent("d1", "org1"))
	reg.MarkTracking(id, true)

	conn, ok := reg.Remove(id)
	if !ok {
		t.Fatal("Remove reported unknown connection")
	}
	if !conn.IsTracking() {
		t.Errorf("removed snapshot lost tracking state: %s", conn.State)
	}
	if _, ok := reg.Get(id); ok {
		t.Error("connection still readable after Remove")
	}
	if got := reg.ByUser("d1"); len(got) != 0 {
		t.Errorf("user index survived Remove: %d connections", len(got))
	}

	if _, ok := reg.Remove(id); ok {
		t.Error("second Remove reported a live connection")
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	reg.Register(id)
	reg.SetIdentity(id, deliveryIdent("d1", "org1"))

	snap, _ := reg.Get(id)
	orig := snap.LastUpdate
	snap.State = StateTracking
	snap.LastUpdate = orig.AddDate(1, 0, 0)

	fresh, _ := reg.Get(id)
	if fresh.State != StateAuthenticated {
		t.Errorf("mutating a snapshot changed stored state: %s", fresh.State)
	}
	if !fresh.LastUpdate.Equal(orig) {
		t.Errorf("mutating a snapshot changed stored LastUpdate")
	}

	// the identity pointer is shared read-only; re-auth swaps it wholesale
	before := fresh.Identity
	reg.SetIdentity(id, deliveryIdent("d1", "org2"))
	after, _ := reg.Get(id)
	if before.OrganizationID != "org1" {
		t.Errorf("old snapshot identity changed under re-auth: %+v", before)
	}
	if after.Identity.OrganizationID != "org2" {
		t.Errorf("re-auth identity not visible: %+v", after.Identity)
	}
}

func TestTrackingFilters(t *testing.T) {
	reg := NewRegistry()

	mk := func(userID, orgID string, tracking bool) uuid.UUID {
		id := uuid.New()
		reg.Register(id)
		if _, err := reg.SetIdentity(id, deliveryIdent(userID, orgID)); err != nil {
			t.Fatalf("SetIdentity(%s): %v", userID, err)
		}
		if tracking {
			if _, err := reg.MarkTracking(id, true); err != nil {
				t.Fatalf("MarkTracking(%s): %v", userID, err)
			}
		}
		return id
	}

	mk("d1", "org1", true)
	mk("d2", "org1", false)
	mk("d3", "org2", true)
	reg.Register(uuid.New()) // never authenticates

	if got := len(reg.AllTracking()); got != 2 {
		t.Errorf("AllTracking = %d, want 2", got)
	}
	org1 := reg.TrackingByOrganization("org1")
	if len(org1) != 1 || org1[0].UserID() != "d1" {
		t.Errorf("TrackingByOrganization(org1) = %+v", org1)
	}
	if got := len(reg.TrackingByOrganization("org9")); got != 0 {
		t.Errorf("unknown org returned %d sessions", got)
	}
	if got := len(reg.All()); got != 4 {
		t.Errorf("All = %d, want 4", got)
	}
}

func TestByUserPutsTrackingFirst(t *testing.T) {
	reg := NewRegistry()

	idle := uuid.New()
	reg.Register(idle)
	reg.SetIdentity(idle, deliveryIdent("d1", "org1"))

	active := uuid.New()
	reg.Register(active)
	reg.SetIdentity(active, deliveryIdent("d1", "org1"))
	reg.MarkTracking(active, true)

	conns := reg.ByUser("d1")
	if len(conns) != 2 {
		t.Fatalf("ByUser = %d connections, want 2", len(conns))
	}
	if !conns[0].IsTracking() {
		t.Errorf("tracking connection not first: %s", conns[0].State)
	}
}
