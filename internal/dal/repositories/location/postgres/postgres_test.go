package postgresrepo

import (
	"strings"
	"testing"
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/location"
)

// A minimal report carries only rider, coordinates and timestamp. The
// optional heading and speed must bind as SQL NULL, which the nullable
// columns accept.
func TestAppendSQL_MinimalReport(t *testing.T) {
	repo := NewPostgresLocationRepository(nil)

	query, args, err := repo.appendSQL(location.Location{
		RiderID:    1,
		Latitude:   45.07,
		Longitude:  7.69,
		RecordedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("appendSQL() error: %v", err)
	}

	if len(args) != 6 {
		t.Fatalf("expected 6 bound args, got %d", len(args))
	}

	heading, ok := args[3].(*float64)
	if !ok || heading != nil {
		t.Errorf("absent heading must bind as a nil pointer, got %#v", args[3])
	}
	speed, ok := args[4].(*float64)
	if !ok || speed != nil {
		t.Errorf("absent speed must bind as a nil pointer, got %#v", args[4])
	}

	if !strings.Contains(query, "ON CONFLICT (rider_id, recorded_at) DO NOTHING") {
		t.Errorf("duplicate reports must be no-ops, query: %s", query)
	}
	if !strings.Contains(query, "RETURNING id") {
		t.Errorf("insert must return the stored row, query: %s", query)
	}
}

func TestAppendSQL_FullReport(t *testing.T) {
	repo := NewPostgresLocationRepository(nil)

	heading := 270.0
	speed := 18.5
	_, args, err := repo.appendSQL(location.Location{
		RiderID:    1,
		Latitude:   45.07,
		Longitude:  7.69,
		Heading:    &heading,
		Speed:      &speed,
		RecordedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("appendSQL() error: %v", err)
	}

	if v, ok := args[3].(*float64); !ok || v == nil || *v != 270.0 {
		t.Errorf("heading not bound, got %#v", args[3])
	}
	if v, ok := args[4].(*float64); !ok || v == nil || *v != 18.5 {
		t.Errorf("speed not bound, got %#v", args[4])
	}
}
