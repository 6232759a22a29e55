package pioneeravr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	pioneeravr "github.com/crowbarz/pioneeravr-go"
	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// newTestAVR connects a client to the emulator with fast test parameters.
// Polling is disabled unless overridden.
func newTestAVR(t *testing.T, e *avrEmulator, overrides map[param.Key]any) *pioneeravr.PioneerAVR {
	t.Helper()
	params := map[param.Key]any{
		param.CommandDelay:     0.0,
		param.Timeout:          1.0,
		param.ScanInterval:     0.0,
		param.EnabledFunctions: []string{},
	}
	for k, v := range overrides {
		params[k] = v
	}
	a := pioneeravr.New(e.transport(), pioneeravr.WithParams(params))
	t.Cleanup(a.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Connect(ctx, false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := a.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return a
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestConnectDiscoversZonesAndState(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)

	if !a.Available() {
		t.Fatal("client should be available after connect")
	}
	props := a.Properties()
	zones := props.Zones()
	if len(zones) != 2 || zones[0] != zone.Main || zones[1] != zone.Zone2 {
		t.Fatalf("zones = %v, want [Main Zone, Zone 2]", zones)
	}
	if on, _ := props.Power(zone.Main); !on {
		t.Error("main power should be on")
	}
	if v, _ := props.Volume(zone.Main); v != 121 {
		t.Errorf("main volume = %d, want 121", v)
	}
	if id, _ := props.SourceID(zone.Main); id != "19" {
		t.Errorf("main source = %q, want 19", id)
	}
	// Factory default names resolve without a source scan.
	if name, _ := props.SourceName(zone.Main); name != "HDMI1" {
		t.Errorf("main source name = %q, want HDMI1", name)
	}
	if max, _ := props.MaxVolume(zone.Main); max != 185 {
		t.Errorf("main max volume = %d, want 185", max)
	}
	if max, _ := props.MaxVolume(zone.Zone2); max != 81 {
		t.Errorf("zone 2 max volume = %d, want 81", max)
	}
}

func TestDeviceInfoAfterInitialRefresh(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	if err := a.Refresh(ctx, nil, true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	props := a.Properties()
	if !waitUntil(t, 2*time.Second, func() bool { return props.Model() == "VSX-1021" }) {
		t.Errorf("model = %q, want VSX-1021", props.Model())
	}
	if got := props.SoftwareVersion(); got != "1.368" {
		t.Errorf("software version = %q, want 1.368", got)
	}
	if got := props.MACAddr(); got != "00:05:BF:11:33:33" {
		t.Errorf("mac = %q, want 00:05:BF:11:33:33", got)
	}
}

func TestSetVolumeLevelDirect(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	if err := a.SetVolumeLevel(ctx, 100, zone.Main); err != nil {
		t.Fatalf("SetVolumeLevel: %v", err)
	}
	if v, _ := a.Properties().Volume(zone.Main); v != 100 {
		t.Errorf("volume = %d, want 100", v)
	}
	if e.count("100VL") != 1 {
		t.Errorf("100VL sent %d times, want 1", e.count("100VL"))
	}
}

func TestVolumeClamp(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	err := a.SetVolumeLevel(ctx, 90, zone.Zone2)
	if !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("SetVolumeLevel(90, Z2) = %v, want Validation", err)
	}
	err = a.SetVolumeLevel(ctx, -1, zone.Main)
	if !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("SetVolumeLevel(-1, Main) = %v, want Validation", err)
	}
}

func TestVolumeStepOnly(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, map[param.Key]any{param.VolumeStepOnly: true})
	ctx := testCtx(t)

	current, _ := a.Properties().Volume(zone.Main)
	if err := a.SetVolumeLevel(ctx, current+3, zone.Main); err != nil {
		t.Fatalf("SetVolumeLevel: %v", err)
	}
	if got := e.count("VU"); got != 3 {
		t.Errorf("VU sent %d times, want 3", got)
	}
	if v, _ := a.Properties().Volume(zone.Main); v != current+3 {
		t.Errorf("volume = %d, want %d", v, current+3)
	}
}

func TestPowerOnVolumeBounce(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, map[param.Key]any{param.PowerOnVolumeBounce: true})
	ctx := testCtx(t)

	if err := a.PowerOn(ctx, zone.Main); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if e.count("VU") != 1 || e.count("VD") != 1 {
		t.Errorf("bounce sent VU=%d VD=%d, want 1 each", e.count("VU"), e.count("VD"))
	}
}

func TestPowerOnTriggersDelayedBasicQuery(t *testing.T) {
	e := newEmulator(t)
	e.powerMain = false
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	before := e.count("?V")
	if err := a.PowerOn(ctx, zone.Main); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	// The off->on transition schedules a basic query after the AVR has
	// settled (~2.5s).
	if !waitUntil(t, 5*time.Second, func() bool { return e.count("?V") > before }) {
		t.Error("delayed basic query never ran after power on")
	}
}

func TestSelectSourceAmbiguity(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	a.SetSourceDict(map[string]string{
		"19": "HDMI",
		"20": "HDMI",
	})
	err := a.SelectSource(ctx, "HDMI", zone.Main)
	if !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("ambiguous source = %v, want Validation", err)
	}
	if err := a.SelectSourceID(ctx, 19, zone.Main); err != nil {
		t.Errorf("SelectSourceID(19) = %v", err)
	}
	if id, _ := a.Properties().SourceID(zone.Main); id != "19" {
		t.Errorf("source = %q, want 19", id)
	}
}

func TestBuildSourceDict(t *testing.T) {
	e := newEmulator(t)
	e.names["01"] = "CD"
	e.names["19"] = "Apple TV"
	a := newTestAVR(t, e, map[param.Key]any{param.MaxSourceID: 20})
	ctx := testCtx(t)

	if err := a.BuildSourceDict(ctx); err != nil {
		t.Fatalf("BuildSourceDict: %v", err)
	}
	dict := a.GetSourceDict(zone.All)
	if len(dict) != 2 || dict["01"] != "CD" || dict["19"] != "Apple TV" {
		t.Errorf("source dict = %v, want CD and Apple TV", dict)
	}
}

func TestTunerStepFallback(t *testing.T) {
	e := newEmulator(t)
	e.srcMain = "02" // tuner selected, FM 87.50, no direct entry
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	props := a.Properties()
	if !waitUntil(t, 2*time.Second, func() bool {
		f, ok := props.TunerFrequency()
		return ok && f == 87.5
	}) {
		t.Fatal("tuner frequency not primed")
	}

	if err := a.SetTunerFrequency(ctx, zone.BandFM, 90.10); err != nil {
		t.Fatalf("SetTunerFrequency: %v", err)
	}
	if got := e.count("TFI"); got != 26 {
		t.Errorf("TFI sent %d times, want 26", got)
	}
	f, _ := props.TunerFrequency()
	if f < 90.05 || f > 90.15 {
		t.Errorf("final frequency = %v, want 90.10 +/- 0.05", f)
	}
}

func TestKeepaliveSuppressesPoll(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, map[param.Key]any{param.ScanInterval: 0.3})
	ctx := testCtx(t)

	if err := a.Refresh(ctx, nil, true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	time.Sleep(100 * time.Millisecond) // let queued work drain
	before := e.count("?V")

	// Unsolicited volume reports act as keepalives.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.sendUnsolicited("VOL041")
			}
		}
	}()

	time.Sleep(1200 * time.Millisecond)
	if got := e.count("?V"); got != before {
		t.Errorf("polling sent %d extra ?V while keepalives were flowing", got-before)
	}
}

func TestPollWithoutKeepalive(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, map[param.Key]any{param.ScanInterval: 0.2})
	ctx := testCtx(t)

	if err := a.Refresh(ctx, nil, true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := e.count("?P")
	if !waitUntil(t, 3*time.Second, func() bool { return e.count("?P") > before }) {
		t.Error("updater never polled without keepalives")
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	e := newEmulator(t)
	params := map[param.Key]any{
		param.CommandDelay:     0.0,
		param.Timeout:          1.0,
		param.ScanInterval:     0.0,
		param.EnabledFunctions: []string{},
	}
	a := pioneeravr.New(e.transport(), pioneeravr.WithParams(params))
	t.Cleanup(a.Shutdown)
	ctx := testCtx(t)

	if err := a.Connect(ctx, true); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := a.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	// An in-flight command fails with ConnectionFailure when the link drops.
	e.setSwallow(true)
	sent := e.count("?P")
	errCh := make(chan error, 1)
	go func() {
		_, err := a.SendCommand(ctx, pioneeravr.Command{Name: "query_power", Zone: zone.Main})
		errCh <- err
	}()
	if !waitUntil(t, 2*time.Second, func() bool { return e.count("?P") > sent }) {
		t.Fatal("in-flight command never sent")
	}
	e.setSwallow(false)
	e.closeConn()

	select {
	case err := <-errCh:
		if !errors.Is(err, avrerr.ErrConnectionFailure) {
			t.Errorf("in-flight error = %v, want ConnectionFailure", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("in-flight command did not fail")
	}

	// Supervisor reconnects after ~1s and the session becomes ready again.
	if !waitUntil(t, 5*time.Second, a.Available) {
		t.Fatal("client did not reconnect")
	}
	if err := a.Refresh(ctx, nil, true); err != nil {
		t.Errorf("Refresh after reconnect: %v", err)
	}
}

func TestUnavailableAfterDisconnect(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	a.Disconnect(false)
	if a.Available() {
		t.Fatal("client should not be available after disconnect")
	}
	if err := a.PowerOn(ctx, zone.Main); !errors.Is(err, avrerr.ErrUnavailable) {
		t.Errorf("PowerOn after disconnect = %v, want Unavailable", err)
	}
}

func TestShutdownIsPermanent(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	a.Shutdown()
	if a.Available() {
		t.Error("client should not be available after shutdown")
	}
	if err := a.Connect(ctx, true); !errors.Is(err, avrerr.ErrUnavailable) {
		t.Errorf("Connect after shutdown = %v, want Unavailable", err)
	}
}

func TestObserversFireOnUnsolicitedUpdate(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)

	updates := make(chan zone.Zone, 8)
	a.Properties().RegisterZoneObserver(zone.Main, func(z zone.Zone) {
		select {
		case updates <- z:
		default:
		}
	})

	e.sendUnsolicited("VOL050")
	select {
	case z := <-updates:
		if z != zone.Main {
			t.Errorf("observer zone = %v, want Main", z)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("observer not notified of unsolicited update")
	}
	if v, _ := a.Properties().Volume(zone.Main); v != 50 {
		t.Errorf("volume = %d, want 50", v)
	}
}

func TestMediaControls(t *testing.T) {
	e := newEmulator(t)
	e.srcMain = "26" // NETWORK source
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	actions := a.SupportedMediaControls(zone.Main)
	if len(actions) == 0 {
		t.Fatal("network source should support media controls")
	}
	if err := a.MediaControl(ctx, "play", zone.Main); err != nil {
		t.Errorf("MediaControl(play) = %v", err)
	}
	if e.count("10NW") != 1 {
		t.Errorf("10NW sent %d times, want 1", e.count("10NW"))
	}
	if err := a.MediaControl(ctx, "eject", zone.Main); !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("unsupported action = %v, want Validation", err)
	}
}

func TestSelectListeningMode(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)
	ctx := testCtx(t)

	if err := a.SelectListeningMode(ctx, "STEREO"); err != nil {
		t.Fatalf("SelectListeningMode: %v", err)
	}
	if e.count("0001SR") != 1 {
		t.Errorf("0001SR sent %d times, want 1", e.count("0001SR"))
	}
	if err := a.SelectListeningMode(ctx, "NO SUCH MODE"); !errors.Is(err, avrerr.ErrValidation) {
		t.Errorf("unknown mode = %v, want Validation", err)
	}
}

func TestSourceNameInvariant(t *testing.T) {
	e := newEmulator(t)
	a := newTestAVR(t, e, nil)

	props := a.Properties()
	a.SetSourceDict(map[string]string{"19": "Living Room TV"})
	id, _ := props.SourceID(zone.Main)
	name, _ := props.SourceName(zone.Main)
	if want := props.SourceNameByID(id); name != want {
		t.Errorf("source_name = %q, want dict value %q", name, want)
	}
	if name != "Living Room TV" {
		t.Errorf("source_name = %q, want Living Room TV", name)
	}
}
