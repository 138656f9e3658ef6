package location

import (
	"testing"
	"time"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
)

func ptr(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		loc     Location
		wantErr bool
	}{
		{name: "valid", loc: Location{RiderID: 1, Latitude: 45.07, Longitude: 7.69}},
		{
			name: "valid with heading and speed",
			loc:  Location{RiderID: 1, Latitude: 45.07, Longitude: 7.69, Heading: ptr(359.9), Speed: ptr(12.5)},
		},
		{name: "latitude too high", loc: Location{Latitude: 90.1}, wantErr: true},
		{name: "latitude too low", loc: Location{Latitude: -90.1}, wantErr: true},
		{name: "longitude too high", loc: Location{Longitude: 180.1}, wantErr: true},
		{name: "longitude too low", loc: Location{Longitude: -180.1}, wantErr: true},
		{name: "heading 360 is out of range", loc: Location{Heading: ptr(360)}, wantErr: true},
		{name: "negative heading", loc: Location{Heading: ptr(-1)}, wantErr: true},
		{name: "negative speed", loc: Location{Speed: ptr(-0.1)}, wantErr: true},
		{name: "boundary coordinates", loc: Location{Latitude: 90, Longitude: -180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if apperr.KindOf(err) != apperr.KindValidation {
					t.Fatalf("expected validation kind, got %v", apperr.KindOf(err))
				}

				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestStalenessOf(t *testing.T) {
	now := time.Now()
	loc := Location{RecordedAt: now.Add(-45 * time.Second)}

	if got := loc.StalenessOf(now); got != 45*time.Second {
		t.Errorf("StalenessOf() = %v, want 45s", got)
	}
}
