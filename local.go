package pioneeravr

import (
	"context"
	"time"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/properties"
	"github.com/crowbarz/pioneeravr-go/queue"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// Local pseudo-commands. These are queue items whose effect is internal and
// which produce no wire traffic of their own.
const (
	localFullRefresh          = "_full_refresh"
	localRefreshZone          = "_refresh_zone"
	localDelayedRefreshZone   = "_delayed_refresh_zone"
	localDelayedQueryBasic    = "_delayed_query_basic"
	localUpdateListeningModes = "_update_listening_modes"
	localCalculateAMStep      = "_calculate_am_frequency_step"
	localSleep                = "_sleep"
	localQueryDeviceInfo      = "_query_device_info"
	localQueryAVInformation   = "_query_av_information"
	localNoop                 = "_noop"
)

const delayedRefreshDelay = 2500 * time.Millisecond

func (a *PioneerAVR) runLocal(ctx context.Context, item *queue.Item) error {
	switch item.Name {
	case localNoop:
		return nil

	case localFullRefresh:
		return a.refreshAllZones(ctx)

	case localRefreshZone:
		z, ok := itemZone(item)
		if !ok {
			return avrerr.NewValidation("%s requires a zone argument", item.Name)
		}
		defer a.clearRefreshPending(z)
		return a.refreshZone(ctx, z)

	case localDelayedRefreshZone:
		z, ok := itemZone(item)
		if !ok {
			return avrerr.NewValidation("%s requires a zone argument", item.Name)
		}
		a.scheduleDelayedRefresh(z)
		return nil

	case localDelayedQueryBasic:
		if a.params.Bool(param.DisableAutoQuery) {
			return nil
		}
		delay, _ := itemDuration(item)
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		return a.queryBasicAll(ctx)

	case localUpdateListeningModes:
		a.props.UpdateListeningModes()
		return nil

	case localCalculateAMStep:
		return a.calculateAMFrequencyStep(ctx)

	case localSleep:
		delay, ok := itemDuration(item)
		if !ok {
			return avrerr.NewValidation("%s requires a delay argument", item.Name)
		}
		return sleepCtx(ctx, delay)

	case localQueryDeviceInfo:
		return a.QueryDeviceInfo(ctx)

	case localQueryAVInformation:
		a.queryAVInformation(ctx)
		return nil
	}
	return avrerr.NewValidation("unknown local command %q", item.Name)
}

// scheduleDelayedRefresh re-enqueues a zone refresh into the delayed queue
// after a settling delay. Dedup against a pending refresh for the zone.
func (a *PioneerAVR) scheduleDelayedRefresh(z zone.Zone) {
	time.AfterFunc(delayedRefreshDelay, func() {
		a.mu.Lock()
		running := a.started
		a.mu.Unlock()
		if !running {
			return
		}
		item := queue.NewCommand(localRefreshZone, z)
		item.QueueID = queue.DelayedQueue
		item.SkipIfQueued = true
		item.SkipIfRefreshing = true
		a.enqueue(item)
	})
}

func itemZone(item *queue.Item) (zone.Zone, bool) {
	if item.HasZone {
		return item.Zone, true
	}
	for _, arg := range item.Args {
		if z, ok := arg.(zone.Zone); ok {
			return z, true
		}
	}
	return 0, false
}

func itemDuration(item *queue.Item) (time.Duration, bool) {
	for _, arg := range item.Args {
		switch v := arg.(type) {
		case time.Duration:
			return v, true
		case float64:
			return time.Duration(v * float64(time.Second)), true
		case int:
			return time.Duration(v) * time.Second, true
		}
	}
	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return avrerr.NewCancelled("sleep")
	}
}

// calculateAMFrequencyStep determines the AM tuner step by stepping the
// frequency up and measuring the difference, then stepping back down. The
// result is stored as the am_frequency_step runtime parameter.
func (a *PioneerAVR) calculateAMFrequencyStep(ctx context.Context) error {
	if a.params.Get(param.TunerAMFrequencyStep) != nil {
		return nil
	}
	band, _ := a.props.TunerBand()
	if band != "AM" || !a.tunerActive() {
		return avrerr.NewValidation("cannot calculate AM frequency step: tuner is unavailable")
	}

	// Prefer the step query when the model supports it.
	if a.registry.HasCommand("query_tuner_am_step", zone.Main) {
		a.trySendCommand(ctx, Command{Name: "query_tuner_am_step"})
		if a.params.Get(param.TunerAMFrequencyStep) != nil {
			return nil
		}
	}

	current, _ := a.props.TunerFrequency()
	next := current
	for count := 3; next == current && count > 0; count-- {
		a.trySendCommand(ctx, Command{Name: "increase_tuner_frequency"})
		next, _ = a.props.TunerFrequency()
	}
	if next == current {
		a.log.Error("cannot calculate tuner AM frequency step: unable to step frequency")
		return nil
	}
	a.params.SetRuntime(param.TunerAMFrequencyStep, next-current)
	a.trySendCommand(ctx, Command{Name: "decrease_tuner_frequency"})
	return nil
}

// tunerActive reports whether any zone has the tuner selected.
func (a *PioneerAVR) tunerActive() bool {
	for _, z := range a.props.Zones() {
		if id, ok := a.props.SourceID(z); ok && id == properties.SourceTuner {
			return true
		}
	}
	return false
}
