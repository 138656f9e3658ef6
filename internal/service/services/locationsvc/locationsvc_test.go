package locationsvc

import (
	"context"
	"testing"
	"time"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/ilocationrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/ioutboxrepo"
	"github.com/pizzadash/dispatch/internal/dal/interfaces/iriderrepo"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/event"
	"github.com/pizzadash/dispatch/internal/service/models/location"
	"github.com/pizzadash/dispatch/internal/service/models/outbox"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

type fakeLocationRepo struct {
	appended  []location.Location
	duplicate bool
	latest    location.Location
	latestErr error
}

func (f *fakeLocationRepo) Append(_ context.Context, loc location.Location) (location.Location, bool, error) {
	if f.duplicate {
		return loc, false, nil
	}

	loc.ID = int64(len(f.appended) + 1)
	f.appended = append(f.appended, loc)

	return loc, true, nil
}

func (f *fakeLocationRepo) Latest(_ context.Context, _ int64) (location.Location, error) {
	if f.latestErr != nil {
		return location.Location{}, f.latestErr
	}

	return f.latest, nil
}

func (f *fakeLocationRepo) LatestForActiveRiders(_ context.Context) (map[int64]location.Location, error) {
	return map[int64]location.Location{f.latest.RiderID: f.latest}, nil
}

type fakeRiderRepo struct {
	riders map[int64]rider.Rider
}

func (f *fakeRiderRepo) Insert(_ context.Context, r rider.Rider) (rider.Rider, error) { return r, nil }

func (f *fakeRiderRepo) Get(_ context.Context, id int64) (rider.Rider, error) {
	r, ok := f.riders[id]
	if !ok {
		return rider.Rider{}, apperr.NotFoundf("rider %d not found", id)
	}

	return r, nil
}

func (f *fakeRiderRepo) List(_ context.Context, _ bool) ([]rider.Rider, error) { return nil, nil }

func (f *fakeRiderRepo) SetActive(_ context.Context, id int64, active bool) (rider.Rider, error) {
	r := f.riders[id]
	r.IsActive = active

	return r, nil
}

type fakeOutboxRepo struct {
	messages []outbox.Message
}

func (f *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	f.messages = append(f.messages, msg)

	return nil
}

func (f *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) Delete(_ context.Context, _ int64) error { return nil }

func (f *fakeOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

type fakeUOW struct {
	locations *fakeLocationRepo
	riders    *fakeRiderRepo
	outbox    *fakeOutboxRepo
	committed int
}

func newFakeUOW() *fakeUOW {
	return &fakeUOW{
		locations: &fakeLocationRepo{},
		riders: &fakeRiderRepo{riders: map[int64]rider.Rider{
			1: {ID: 1, Name: "Marco", IsActive: true},
		}},
		outbox: &fakeOutboxRepo{},
	}
}

func (f *fakeUOW) Begin(_ context.Context) error    { return nil }
func (f *fakeUOW) Commit(_ context.Context) error   { f.committed++; return nil }
func (f *fakeUOW) Rollback(_ context.Context) error { return nil }

func (f *fakeUOW) LocationRepository() ilocationrepo.ILocationRepository { return f.locations }
func (f *fakeUOW) RiderRepository() iriderrepo.IRiderRepository          { return f.riders }
func (f *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository       { return f.outbox }

func newTestService(work *fakeUOW) *LocationService {
	return MustNewLocationService(WithUnitOfWorkFactory(func() unitOfWork { return work }))
}

func TestReportLocation(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	stored, err := svc.ReportLocation(context.Background(), actor.System, location.Location{
		RiderID:   1,
		Latitude:  45.0703,
		Longitude: 7.6869,
	})
	if err != nil {
		t.Fatalf("ReportLocation() error: %v", err)
	}

	if stored.RecordedAt.IsZero() {
		t.Error("timestamp must be server-assigned when the report has none")
	}
	if len(work.locations.appended) != 1 {
		t.Fatalf("expected 1 appended report, got %d", len(work.locations.appended))
	}
	if len(work.outbox.messages) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(work.outbox.messages))
	}
	if work.outbox.messages[0].RoutingKey != event.RoutingKeyLocationReported {
		t.Errorf("routing key = %s, want %s",
			work.outbox.messages[0].RoutingKey, event.RoutingKeyLocationReported)
	}
	if work.committed != 1 {
		t.Errorf("expected 1 commit, got %d", work.committed)
	}
}

func TestReportLocation_OutOfRange(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	_, err := svc.ReportLocation(context.Background(), actor.System, location.Location{
		RiderID:  1,
		Latitude: 95,
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(work.locations.appended) != 0 {
		t.Error("invalid reports must not be stored")
	}
}

func TestReportLocation_UnknownRider(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	_, err := svc.ReportLocation(context.Background(), actor.System, location.Location{
		RiderID:   42,
		Latitude:  45.07,
		Longitude: 7.69,
	})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReportLocation_DuplicateIsNoOp(t *testing.T) {
	work := newFakeUOW()
	work.locations.duplicate = true
	svc := newTestService(work)

	_, err := svc.ReportLocation(context.Background(), actor.System, location.Location{
		RiderID:    1,
		Latitude:   45.07,
		Longitude:  7.69,
		RecordedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("duplicate report must not fail: %v", err)
	}
	if len(work.outbox.messages) != 0 {
		t.Error("a duplicate report must not fan out a second event")
	}
}

func TestTrackRider(t *testing.T) {
	speed := 25.0
	work := newFakeUOW()
	work.locations.latest = location.Location{
		RiderID:    1,
		Latitude:   45.0703, // Turin
		Longitude:  7.6869,
		Speed:      &speed,
		RecordedAt: time.Now().Add(-30 * time.Second),
	}
	svc := newTestService(work)

	// Destination: Milan.
	tracking, err := svc.TrackRider(context.Background(), 1, 45.4642, 9.19)
	if err != nil {
		t.Fatalf("TrackRider() error: %v", err)
	}

	if tracking.DistanceKm < 115 || tracking.DistanceKm > 135 {
		t.Errorf("Turin-Milan distance = %v km, want ~125", tracking.DistanceKm)
	}
	if tracking.ETASeconds <= 0 {
		t.Errorf("ETA = %d, want positive", tracking.ETASeconds)
	}
	if tracking.StalenessS < 29 {
		t.Errorf("staleness = %ds, want >= 29", tracking.StalenessS)
	}
}

func TestTrackRider_NoReports(t *testing.T) {
	work := newFakeUOW()
	work.locations.latestErr = apperr.NotFoundf("no reports for rider 1")
	svc := newTestService(work)

	_, err := svc.TrackRider(context.Background(), 1, 45.46, 9.19)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
