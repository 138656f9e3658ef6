package order

import (
	"errors"
	"testing"

	"github.com/pizzadash/dispatch/internal/service/models/apperr"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusAssigned}:     true,
		{StatusPending, StatusCancelled}:    true,
		{StatusAssigned, StatusInDelivery}:  true,
		{StatusAssigned, StatusCancelled}:   true,
		{StatusInDelivery, StatusDelivered}: true,
	}

	all := []Status{StatusPending, StatusAssigned, StatusInDelivery, StatusDelivered, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValidateTransition_InvalidEdge(t *testing.T) {
	err := ValidateTransition(StatusDelivered, StatusCancelled)
	if err == nil {
		t.Fatal("expected error for delivered -> cancelled")
	}
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected invalid transition kind, got %v", apperr.KindOf(err))
	}
}

func TestValidateTransition_InDeliveryCannotCancel(t *testing.T) {
	if err := ValidateTransition(StatusInDelivery, StatusCancelled); err == nil {
		t.Fatal("an order already out for delivery must not be cancellable")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "pending", want: StatusPending},
		{in: "assigned", want: StatusAssigned},
		{in: "in_delivery", want: StatusInDelivery},
		{in: "delivered", want: StatusDelivered},
		{in: "cancelled", want: StatusCancelled},
		{in: "shipped", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q) expected error", tt.in)
			} else if apperr.KindOf(err) != apperr.KindValidation {
				t.Errorf("ParseStatus(%q) expected validation error, got %v", tt.in, err)
			}

			continue
		}
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", tt.in, err)

			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !StatusDelivered.IsTerminal() || !StatusCancelled.IsTerminal() {
		t.Error("delivered and cancelled must be terminal")
	}
	if StatusPending.IsTerminal() || StatusAssigned.IsTerminal() || StatusInDelivery.IsTerminal() {
		t.Error("pending, assigned and in_delivery must not be terminal")
	}
}

func TestStatusErrorsMatchByKind(t *testing.T) {
	err := ValidateTransition(StatusDelivered, StatusAssigned)
	if !errors.Is(err, apperr.InvalidTransitionf("")) {
		t.Error("invalid transition errors should match by kind")
	}
}
