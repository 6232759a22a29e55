package avrerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/crowbarz/pioneeravr-go/avrerr"
)

func TestKindMatching(t *testing.T) {
	err := avrerr.NewAvrError("query_volume", "E02")
	if !errors.Is(err, avrerr.ErrAvrError) {
		t.Error("expected errors.Is to match ErrAvrError")
	}
	if errors.Is(err, avrerr.ErrResponseTimeout) {
		t.Error("AvrError should not match ErrResponseTimeout")
	}
	if got := avrerr.KindOf(err); got != avrerr.AvrError {
		t.Errorf("KindOf = %q, want %q", got, avrerr.AvrError)
	}
}

func TestWrappedKind(t *testing.T) {
	inner := avrerr.NewResponseTimeout("query_power")
	wrapped := fmt.Errorf("refresh failed: %w", inner)
	if !errors.Is(wrapped, avrerr.ErrResponseTimeout) {
		t.Error("wrapped error should match ErrResponseTimeout")
	}
	if got := avrerr.KindOf(wrapped); got != avrerr.ResponseTimeout {
		t.Errorf("KindOf = %q, want %q", got, avrerr.ResponseTimeout)
	}
}

func TestErrorText(t *testing.T) {
	err := avrerr.NewAvrError("turn_on", "E02")
	want := "turn_on: AVR returned error E02"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	verr := avrerr.NewValidation("volume %d out of range", 90)
	if verr.Error() != "volume 90 out of range" {
		t.Errorf("Error() = %q", verr.Error())
	}
}

func TestKindOfNonAVRError(t *testing.T) {
	if got := avrerr.KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", got)
	}
}
