package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
)

type txMarker struct{}

// fakeUOW marks the context so repos can assert they ran inside a tx.
type fakeUOW struct {
	calls int
}

func (uow *fakeUOW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	uow.calls++
	return fn(context.WithValue(ctx, txMarker{}, true))
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txMarker{}) != nil
}

type fakeLocationRepo struct {
	upserts []*geo.CurrentLocation
	current map[string]*geo.CurrentLocation
	sawTx   bool
	err     error
}

func (repo *fakeLocationRepo) UpsertCurrent(ctx context.Context, location *geo.CurrentLocation) error {
	repo.sawTx = inTx(ctx)
	if repo.err != nil {
		return repo.err
	}
	repo.upserts = append(repo.upserts, location)
	return nil
}

func (repo *fakeLocationRepo) GetCurrent(ctx context.Context, userID string) (*geo.CurrentLocation, error) {
	repo.sawTx = inTx(ctx)
	if repo.err != nil {
		return nil, repo.err
	}
	location, ok := repo.current[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return location, nil
}

type fakeTrackingRepo struct {
	sawTx  bool
	active []bool
	err    error
}

func (repo *fakeTrackingRepo) SetActive(ctx context.Context, userID, organizationID string, active bool, at time.Time) error {
	repo.sawTx = inTx(ctx)
	if repo.err != nil {
		return repo.err
	}
	repo.active = append(repo.active, active)
	return nil
}

type fakeEmergencyRepo struct {
	sawTx  bool
	alerts []*emergency.Alert
	err    error
}

func (repo *fakeEmergencyRepo) Append(ctx context.Context, alert *emergency.Alert) (string, error) {
	repo.sawTx = inTx(ctx)
	if repo.err != nil {
		return "", repo.err
	}
	repo.alerts = append(repo.alerts, alert)
	return "em-42", nil
}

func testLocation(t *testing.T) *geo.CurrentLocation {
	t.Helper()
	location, err := geo.NewCurrentLocation("d1", "org1", geo.Snapshot{
		Latitude:   52.52,
		Longitude:  13.405,
		RecordedAt: time.Now().UTC(),
	}, nil, geo.NetworkTypeUnknown, "", true)
	if err != nil {
		t.Fatalf("NewCurrentLocation: %v", err)
	}
	return location
}

func TestBridgeWrapsEveryCallInTx(t *testing.T) {
	uow := &fakeUOW{}
	locations := &fakeLocationRepo{current: map[string]*geo.CurrentLocation{}}
	tracking := &fakeTrackingRepo{}
	emergencies := &fakeEmergencyRepo{}
	bridge := NewPersistenceBridge(uow, locations, tracking, emergencies)
	ctx := context.Background()

	if err := bridge.UpsertCurrentLocation(ctx, testLocation(t)); err != nil {
		t.Fatalf("UpsertCurrentLocation: %v", err)
	}
	if err := bridge.SetTrackingActive(ctx, "d1", "org1", true); err != nil {
		t.Fatalf("SetTrackingActive: %v", err)
	}
	alert, err := emergency.NewAlert("d1", "org1", 52.52, 13.405, "", emergency.PriorityMedium)
	if err != nil {
		t.Fatalf("NewAlert: %v", err)
	}
	if _, err := bridge.AppendEmergency(ctx, alert); err != nil {
		t.Fatalf("AppendEmergency: %v", err)
	}
	if _, err := bridge.CurrentLocation(ctx, "d1"); err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}

	if uow.calls != 4 {
		t.Fatalf("expected 4 transactions, got %d", uow.calls)
	}
	if !locations.sawTx || !tracking.sawTx || !emergencies.sawTx {
		t.Fatalf("expected all repos to run inside a tx: locations=%v tracking=%v emergencies=%v",
			locations.sawTx, tracking.sawTx, emergencies.sawTx)
	}
}

func TestBridgeCurrentLocationAbsent(t *testing.T) {
	bridge := NewPersistenceBridge(&fakeUOW{}, &fakeLocationRepo{current: map[string]*geo.CurrentLocation{}}, &fakeTrackingRepo{}, &fakeEmergencyRepo{})

	location, err := bridge.CurrentLocation(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("expected no-rows to map to nil, got error %v", err)
	}
	if location != nil {
		t.Fatalf("expected nil location, got %+v", location)
	}
}

func TestBridgeCurrentLocationFound(t *testing.T) {
	stored := testLocation(t)
	bridge := NewPersistenceBridge(&fakeUOW{},
		&fakeLocationRepo{current: map[string]*geo.CurrentLocation{"d1": stored}},
		&fakeTrackingRepo{}, &fakeEmergencyRepo{})

	location, err := bridge.CurrentLocation(context.Background(), "d1")
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if location != stored {
		t.Fatalf("expected stored location back, got %+v", location)
	}
}

func TestBridgeAppendEmergencyReturnsStoredID(t *testing.T) {
	bridge := NewPersistenceBridge(&fakeUOW{}, &fakeLocationRepo{}, &fakeTrackingRepo{}, &fakeEmergencyRepo{})
	alert, err := emergency.NewAlert("d1", "org1", 1, 2, "help", emergency.PriorityHigh)
	if err != nil {
		t.Fatalf("NewAlert: %v", err)
	}

	id, err := bridge.AppendEmergency(context.Background(), alert)
	if err != nil {
		t.Fatalf("AppendEmergency: %v", err)
	}
	if id != "em-42" {
		t.Fatalf("expected stored id em-42, got %q", id)
	}
}

func TestBridgePropagatesFailures(t *testing.T) {
	boom := errors.New("connection reset")
	bridge := NewPersistenceBridge(&fakeUOW{},
		&fakeLocationRepo{err: boom},
		&fakeTrackingRepo{err: boom},
		&fakeEmergencyRepo{err: boom})
	ctx := context.Background()

	if err := bridge.UpsertCurrentLocation(ctx, testLocation(t)); !errors.Is(err, boom) {
		t.Fatalf("UpsertCurrentLocation error = %v, want %v", err, boom)
	}
	if err := bridge.SetTrackingActive(ctx, "d1", "org1", false); !errors.Is(err, boom) {
		t.Fatalf("SetTrackingActive error = %v, want %v", err, boom)
	}
	alert, _ := emergency.NewAlert("d1", "org1", 1, 2, "", emergency.PriorityLow)
	id, err := bridge.AppendEmergency(ctx, alert)
	if !errors.Is(err, boom) {
		t.Fatalf("AppendEmergency error = %v, want %v", err, boom)
	}
	if id != "" {
		t.Fatalf("expected empty id on failure, got %q", id)
	}
	if _, err := bridge.CurrentLocation(ctx, "d1"); !errors.Is(err, boom) {
		t.Fatalf("CurrentLocation error = %v, want %v", err, boom)
	}
}
