package zone_test

import (
	"testing"

	"github.com/crowbarz/pioneeravr-go/zone"
)

func TestWireCodes(t *testing.T) {
	cases := []struct {
		zone zone.Zone
		code string
	}{
		{zone.Main, "1"},
		{zone.Zone2, "2"},
		{zone.Zone3, "3"},
		{zone.HDZone, "Z"},
		{zone.All, ""},
	}
	for _, c := range cases {
		if got := c.zone.Code(); got != c.code {
			t.Errorf("%s Code() = %q, want %q", c.zone, got, c.code)
		}
	}
}

func TestFromCodeRoundTrip(t *testing.T) {
	for _, z := range zone.RealZones() {
		got, ok := zone.FromCode(z.Code())
		if !ok || got != z {
			t.Errorf("FromCode(%q) = %v, %v; want %v", z.Code(), got, ok, z)
		}
	}
	if _, ok := zone.FromCode("X"); ok {
		t.Error("FromCode(X) should not resolve")
	}
}

func TestTunerBandString(t *testing.T) {
	if zone.BandAM.String() != "AM" || zone.BandFM.String() != "FM" {
		t.Error("unexpected tuner band labels")
	}
}
