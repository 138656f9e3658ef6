package ridersvc

import (
	"context"
	"testing"

	"github.com/pizzadash/dispatch/internal/dal/interfaces/iriderrepo"
	"github.com/pizzadash/dispatch/internal/service/models/actor"
	"github.com/pizzadash/dispatch/internal/service/models/apperr"
	"github.com/pizzadash/dispatch/internal/service/models/rider"
)

type fakeRiderRepo struct {
	riders map[int64]rider.Rider
	nextID int64
}

func (f *fakeRiderRepo) Insert(_ context.Context, r rider.Rider) (rider.Rider, error) {
	f.nextID++
	r.ID = f.nextID
	f.riders[r.ID] = r

	return r, nil
}

func (f *fakeRiderRepo) Get(_ context.Context, id int64) (rider.Rider, error) {
	r, ok := f.riders[id]
	if !ok {
		return rider.Rider{}, apperr.NotFoundf("rider %d not found", id)
	}

	return r, nil
}

func (f *fakeRiderRepo) List(_ context.Context, onlyActive bool) ([]rider.Rider, error) {
	var result []rider.Rider
	for _, r := range f.riders {
		if onlyActive && !r.IsActive {
			continue
		}
		result = append(result, r)
	}

	return result, nil
}

func (f *fakeRiderRepo) SetActive(_ context.Context, id int64, active bool) (rider.Rider, error) {
	r, ok := f.riders[id]
	if !ok {
		return rider.Rider{}, apperr.NotFoundf("rider %d not found", id)
	}
	r.IsActive = active
	f.riders[id] = r

	return r, nil
}

func newTestService() (*fakeRiderRepo, *RiderService) {
	repo := &fakeRiderRepo{riders: map[int64]rider.Rider{}}
	svc := MustNewRiderService(WithRepositoryFactory(func() iriderrepo.IRiderRepository {
		return repo
	}))

	return repo, svc
}

func TestCreateRider(t *testing.T) {
	_, svc := newTestService()

	created, err := svc.CreateRider(context.Background(), actor.System, rider.Rider{
		Name:  "Marco",
		Phone: "+393331112233",
	})
	if err != nil {
		t.Fatalf("CreateRider() error: %v", err)
	}
	if !created.IsActive {
		t.Error("new riders must start active")
	}
	if created.ID == 0 {
		t.Error("rider id must be assigned")
	}
}

func TestCreateRider_MissingFields(t *testing.T) {
	repo, svc := newTestService()

	_, err := svc.CreateRider(context.Background(), actor.System, rider.Rider{Name: "Marco"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.riders) != 0 {
		t.Error("invalid riders must not be stored")
	}
}

func TestSetRiderActive(t *testing.T) {
	repo, svc := newTestService()
	repo.riders[1] = rider.Rider{ID: 1, Name: "Marco", Phone: "x", IsActive: true}
	repo.nextID = 1

	updated, err := svc.SetRiderActive(context.Background(), actor.System, 1, false)
	if err != nil {
		t.Fatalf("SetRiderActive() error: %v", err)
	}
	if updated.IsActive {
		t.Error("rider should be deactivated")
	}
	// Deactivation hides, it never deletes.
	if _, err := svc.GetRider(context.Background(), 1); err != nil {
		t.Errorf("deactivated rider must still be readable: %v", err)
	}
}

func TestListRiders_OnlyActive(t *testing.T) {
	repo, svc := newTestService()
	repo.riders[1] = rider.Rider{ID: 1, IsActive: true}
	repo.riders[2] = rider.Rider{ID: 2, IsActive: false}

	active, err := svc.ListRiders(context.Background(), true)
	if err != nil {
		t.Fatalf("ListRiders() error: %v", err)
	}
	if len(active) != 1 || active[0].ID != 1 {
		t.Errorf("expected only rider 1, got %+v", active)
	}

	all, err := svc.ListRiders(context.Background(), false)
	if err != nil {
		t.Fatalf("ListRiders() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 riders, got %d", len(all))
	}
}
