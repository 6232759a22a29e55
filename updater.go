package pioneeravr

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/properties"
	"github.com/crowbarz/pioneeravr-go/queue"
	"github.com/crowbarz/pioneeravr-go/zone"
)

const autoQueryDelay = 2500 * time.Millisecond

// updaterLoop drives periodic refreshes. With always_poll disabled, any
// inbound frame since the previous tick counts as a keepalive and the
// refresh is skipped.
func (a *PioneerAVR) updaterLoop(stop, done chan struct{}) {
	defer close(done)
	lastTick := time.Now()
	for {
		interval := a.params.Duration(param.ScanInterval)
		if interval <= 0 {
			// Polling disabled; wait for a parameter change.
			select {
			case <-stop:
				return
			case <-a.updaterReset():
				continue
			}
		}
		timer := time.NewTimer(interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-a.updaterReset():
			timer.Stop()
			continue
		case <-timer.C:
		}

		now := time.Now()
		if a.conn.Available() {
			if a.params.Bool(param.AlwaysPoll) {
				a.ScheduleRefresh(zone.All)
			} else if a.conn.LastInbound().After(lastTick) {
				a.log.Debug("skipping refresh, keepalive received")
			} else {
				a.ScheduleRefresh(zone.All)
			}
		}
		lastTick = now
	}
}

func (a *PioneerAVR) updaterReset() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.updResetCh == nil {
		a.updResetCh = make(chan struct{}, 1)
	}
	return a.updResetCh
}

func (a *PioneerAVR) signalUpdaterReset() {
	select {
	case a.updaterReset() <- struct{}{}:
	default:
	}
}

// ScheduleRefresh enqueues a refresh for one zone, or a full refresh for
// zone.All. Duplicate pending refreshes are skipped.
func (a *PioneerAVR) ScheduleRefresh(z zone.Zone) {
	var item *queue.Item
	if z == zone.All {
		item = queue.NewItem(localFullRefresh)
	} else {
		item = queue.NewCommand(localRefreshZone, z)
	}
	item.SkipIfQueued = true
	a.enqueue(item)
}

// Refresh enqueues refreshes for the given zones (nil means all) and, when
// wait is set, returns once they have executed.
func (a *PioneerAVR) Refresh(ctx context.Context, zones []zone.Zone, wait bool) error {
	if err := a.checkAvailable("refresh", true); err != nil {
		return err
	}
	var items []*queue.Item
	if len(zones) == 0 {
		items = append(items, queue.NewItem(localFullRefresh))
	} else {
		for _, z := range zones {
			items = append(items, queue.NewCommand(localRefreshZone, z))
		}
	}
	for _, item := range items {
		item.SkipIfQueued = true
		a.enqueue(item)
	}
	if !wait {
		return nil
	}
	for _, item := range items {
		select {
		case err := <-item.Done():
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return avrerr.NewCancelled("refresh")
		}
	}
	return nil
}

// Refresh-pending bookkeeping consulted by the SkipIfRefreshing rule.

func (a *PioneerAVR) markRefreshPending(item *queue.Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if item.Name == localFullRefresh {
		for _, z := range zone.RealZones() {
			a.refreshing[z] = true
		}
		return
	}
	if z, ok := itemZone(item); ok {
		a.refreshing[z] = true
	}
}

func (a *PioneerAVR) refreshPending(z zone.Zone) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshing[z]
}

func (a *PioneerAVR) clearRefreshPending(z zone.Zone) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.refreshing, z)
}

// refreshAllZones refreshes every detected zone, then the global AV state.
func (a *PioneerAVR) refreshAllZones(ctx context.Context) error {
	zones := a.props.Zones()
	a.log.Info("refreshing AVR status", "zones", len(zones))
	defer func() {
		for _, z := range zone.RealZones() {
			a.clearRefreshPending(z)
		}
	}()
	for _, z := range zones {
		if err := a.refreshZone(ctx, z); err != nil {
			return err
		}
	}
	a.props.NotifyZones([]zone.Zone{zone.All})
	a.queryAVInformation(ctx)
	return nil
}

// refreshZone refreshes the cached state of one zone. Powered-off zones only
// have their power state confirmed. AVR errors on individual queries are
// tolerated; a response timeout indicates a dead session and aborts the
// refresh.
func (a *PioneerAVR) refreshZone(ctx context.Context, z zone.Zone) error {
	ok, timedOut := a.trySendCommand(ctx, Command{Name: "query_power", Zone: z})
	if timedOut {
		return avrerr.NewResponseTimeout("query_power")
	}
	if !ok {
		return nil
	}
	if on, _ := a.props.Power(z); !on {
		return nil
	}

	for _, name := range []string{"query_volume", "query_mute", "query_source_id"} {
		if _, timedOut := a.trySendCommand(ctx, Command{Name: name, Zone: z}); timedOut {
			return avrerr.NewResponseTimeout(name)
		}
	}

	if !a.params.Bool(param.DisableAutoQuery) {
		a.refreshZoneFunctions(ctx, z)
	}
	a.markInitialRefresh(ctx, z)
	return nil
}

// refreshZoneFunctions issues the per-category queries enabled via the
// enabled_functions parameter.
func (a *PioneerAVR) refreshZoneFunctions(ctx context.Context, z zone.Zone) {
	enabled := a.params.Strings(param.EnabledFunctions)
	names := a.registry.CommandNames("query_")
	sort.Strings(names)
	for _, name := range names {
		category := strings.SplitN(strings.TrimPrefix(name, "query_"), "_", 2)[0]
		if !containsString(enabled, category) {
			continue
		}
		if !a.registry.HasCommand(name, z) {
			continue
		}
		a.trySendCommand(ctx, Command{Name: name, Zone: z})
	}

	if containsString(enabled, "channels") {
		if on, _ := a.props.Power(zone.Main); on && a.registry.HasCommand("set_channel_levels", z) {
			for _, channel := range channelNames {
				prefix := "?" + padChannel(channel)
				a.trySendCommand(ctx, Command{Name: "set_channel_levels", Zone: z, Prefix: prefix})
			}
		}
	}
}

// markInitialRefresh records the first completed refresh for a powered-on
// zone. Device information queries wait until the Main zone has completed
// its initial refresh.
func (a *PioneerAVR) markInitialRefresh(ctx context.Context, z zone.Zone) {
	if on, _ := a.props.Power(z); !on {
		return
	}
	a.mu.Lock()
	already := a.initialDone[z]
	if !already {
		a.initialDone[z] = true
	}
	var refreshed []zone.Zone
	for _, rz := range zone.RealZones() {
		if a.initialDone[rz] {
			refreshed = append(refreshed, rz)
		}
	}
	mainDone := a.initialDone[zone.Main]
	deviceInfoDue := mainDone && !a.deviceInfoOK
	if deviceInfoDue {
		a.deviceInfoOK = true
	}
	a.mu.Unlock()

	if !already {
		a.log.Info("completed initial refresh", "zone", z.String())
		a.params.SetRuntime(param.ZonesInitialRefresh, refreshed)
	}
	if deviceInfoDue {
		if err := a.QueryDeviceInfo(ctx); err != nil {
			a.log.Warn("device information query failed", "err", err)
		}
	}
}

// queryBasicAll performs the basic query set (power, volume, mute, source)
// for every detected zone.
func (a *PioneerAVR) queryBasicAll(ctx context.Context) error {
	for _, z := range a.props.Zones() {
		ok, timedOut := a.trySendCommand(ctx, Command{Name: "query_power", Zone: z})
		if timedOut {
			return avrerr.NewResponseTimeout("query_power")
		}
		if !ok {
			continue
		}
		if on, _ := a.props.Power(z); !on {
			continue
		}
		for _, name := range []string{"query_volume", "query_mute", "query_source_id"} {
			a.trySendCommand(ctx, Command{Name: name, Zone: z})
		}
	}
	return nil
}

// queryAVInformation refreshes listening mode and audio/video signal
// information while any zone is powered on.
func (a *PioneerAVR) queryAVInformation(ctx context.Context) {
	if !a.props.AnyPowerOn() {
		return
	}
	for _, name := range []string{"query_listening_mode", "query_audio_information", "query_video_information"} {
		a.trySendCommand(ctx, Command{Name: name, Zone: zone.Main})
	}
}

// reactToUpdate runs after a frame has been decoded: it schedules the
// deferred basic query on zone power-on and the AM frequency step
// calculation when the tuner lands on AM with an unknown step.
func (a *PioneerAVR) reactToUpdate(zones []zone.Zone) {
	disableAutoQuery := a.params.Bool(param.DisableAutoQuery)
	for _, z := range zones {
		if z == zone.All {
			continue
		}
		on, known := a.props.Power(z)
		if !known {
			continue
		}
		a.mu.Lock()
		was, hadPrev := a.lastPower[z]
		a.lastPower[z] = on
		a.mu.Unlock()
		if on && hadPrev && !was {
			if !disableAutoQuery {
				item := queue.NewItem(localDelayedQueryBasic, autoQueryDelay)
				item.SkipIfQueued = true
				a.enqueue(item)
			}
			a.mu.Lock()
			initial := a.initialDone[z]
			a.mu.Unlock()
			if !initial {
				// Full zone refresh once the AVR has settled after its
				// first power on.
				item := queue.NewCommand(localDelayedRefreshZone, z)
				item.SkipIfQueued = true
				a.enqueue(item)
			}
		}

		if id, ok := a.props.SourceID(z); ok && id == properties.SourceTuner {
			if _, ok := a.props.TunerFrequency(); !ok {
				for _, name := range []string{"query_tuner_frequency", "query_tuner_preset"} {
					item := queue.NewCommand(name, zone.Main)
					item.SkipIfQueued = true
					a.enqueue(item)
				}
			}
		}
	}

	if band, ok := a.props.TunerBand(); ok && band == "AM" && a.params.Get(param.TunerAMFrequencyStep) == nil {
		item := queue.NewItem(localCalculateAMStep)
		item.SkipIfQueued = true
		a.enqueue(item)
	}
}

var channelNames = []string{"C", "L", "R", "SL", "SR", "SBL", "SBR", "SW", "LH", "RH", "LW", "RW"}

func padChannel(channel string) string {
	for len(channel) < 3 {
		channel += "_"
	}
	return channel
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
