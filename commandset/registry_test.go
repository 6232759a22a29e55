package commandset_test

import (
	"errors"
	"testing"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/commandset"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/properties"
	"github.com/crowbarz/pioneeravr-go/zone"
)

func newRegistry(t *testing.T) (*commandset.Registry, *properties.Properties, *param.Params) {
	t.Helper()
	params := param.New()
	props := properties.New(params, nil)
	return commandset.Default(nil), props, params
}

func TestCommandLookup(t *testing.T) {
	reg, _, _ := newRegistry(t)

	wire, err := reg.Command("query_volume", zone.Zone2)
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if wire.Token != "?ZV" || wire.Response != "ZV" {
		t.Errorf("query_volume zone2 = %+v, want ?ZV/ZV", wire)
	}

	if _, err := reg.Command("no_such_command", zone.Main); !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("unknown command error = %v, want Validation", err)
	}
	if _, err := reg.Command("query_listening_mode", zone.Zone3); !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("unsupported zone error = %v, want Validation", err)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	reg, props, params := newRegistry(t)
	props.AddZone(zone.Main)
	props.AddZone(zone.Zone2)

	// Z2MUT0 must decode as zone 2 mute, not be shadowed by a shorter
	// matching prefix.
	zones := reg.Decode("Z2MUT0", props, params)
	if len(zones) != 1 || zones[0] != zone.Zone2 {
		t.Fatalf("Decode(Z2MUT0) zones = %v, want [Zone 2]", zones)
	}
	muted, ok := props.Mute(zone.Zone2)
	if !ok || !muted {
		t.Errorf("zone 2 mute = %v, %v; want true", muted, ok)
	}
}

func TestRegistrationOrderBreaksTies(t *testing.T) {
	reg := commandset.NewRegistry(nil)
	params := param.New()
	props := properties.New(params, nil)

	var hit string
	reg.RegisterDecoder("AB", func(rest string, _ *properties.Properties, _ *param.Params) []zone.Zone {
		hit = "first"
		return nil
	})
	reg.RegisterDecoder("AB", func(rest string, _ *properties.Properties, _ *param.Params) []zone.Zone {
		hit = "second"
		return nil
	})
	reg.Decode("AB123", props, params)
	if hit != "first" {
		t.Errorf("tie broken by %q, want first registration", hit)
	}
}

func TestDecodePower(t *testing.T) {
	reg, props, params := newRegistry(t)
	reg.Decode("PWR0", props, params)
	if on, ok := props.Power(zone.Main); !ok || !on {
		t.Error("PWR0 should set main power on")
	}
	reg.Decode("PWR1", props, params)
	if on, _ := props.Power(zone.Main); on {
		t.Error("PWR1 should set main power off")
	}
}

func TestDecodeVolumeAndSource(t *testing.T) {
	reg, props, params := newRegistry(t)

	reg.Decode("VOL121", props, params)
	if v, _ := props.Volume(zone.Main); v != 121 {
		t.Errorf("main volume = %d, want 121", v)
	}

	reg.Decode("FN02", props, params)
	if id, _ := props.SourceID(zone.Main); id != "02" {
		t.Errorf("main source = %q, want 02", id)
	}
	// Source 02 is the tuner, which supports tuner media controls.
	if mode, _ := props.MediaControlMode(zone.Main); mode != "TUNER" {
		t.Errorf("media control mode = %q, want TUNER", mode)
	}
	if name, _ := props.SourceName(zone.Main); name != "TUNER" {
		t.Errorf("source name = %q, want TUNER", name)
	}
}

func TestDecodeTunerFrequency(t *testing.T) {
	reg, props, params := newRegistry(t)

	reg.Decode("FRF08750", props, params)
	band, _ := props.TunerBand()
	freq, _ := props.TunerFrequency()
	if band != "FM" || freq != 87.5 {
		t.Errorf("tuner = %q %v, want FM 87.5", band, freq)
	}

	reg.Decode("FRA01630", props, params)
	band, _ = props.TunerBand()
	freq, _ = props.TunerFrequency()
	if band != "AM" || freq != 1630 {
		t.Errorf("tuner = %q %v, want AM 1630", band, freq)
	}
}

func TestDecodeModelSelectsProfile(t *testing.T) {
	reg, props, params := newRegistry(t)

	reg.Decode("RGD<VSX-930/CUXESM>", props, params)
	if got := props.Model(); got != "VSX-930" {
		t.Errorf("model = %q, want VSX-930", got)
	}
	if !params.Bool(param.PowerOnVolumeBounce) {
		t.Error("detected model should apply its parameter profile")
	}
}

func TestDecodeSystemIdentity(t *testing.T) {
	reg, props, params := newRegistry(t)

	reg.Decode(`SSI"1.368"`, props, params)
	if got := props.SoftwareVersion(); got != "1.368" {
		t.Errorf("software version = %q, want 1.368", got)
	}

	reg.Decode("SVB0005BF113333", props, params)
	if got := props.MACAddr(); got != "00:05:BF:11:33:33" {
		t.Errorf("mac = %q, want 00:05:BF:11:33:33", got)
	}
}

func TestDecodeSourceName(t *testing.T) {
	reg, props, params := newRegistry(t)
	reg.Decode("RGB191Apple TV", props, params)
	if got := props.SourceNameByID("19"); got != "Apple TV" {
		t.Errorf("source 19 name = %q, want Apple TV", got)
	}
}

func TestDecoderPanicContained(t *testing.T) {
	reg := commandset.NewRegistry(nil)
	params := param.New()
	props := properties.New(params, nil)
	reg.RegisterDecoder("XX", func(string, *properties.Properties, *param.Params) []zone.Zone {
		panic("bad decoder")
	})
	if zones := reg.Decode("XX1", props, params); zones != nil {
		t.Errorf("panicking decoder returned %v, want nil", zones)
	}
}

func TestUnmatchedFrame(t *testing.T) {
	reg, props, params := newRegistry(t)
	if zones := reg.Decode("QQQ123", props, params); zones != nil {
		t.Errorf("unmatched frame returned %v, want nil", zones)
	}
}
