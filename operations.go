package pioneeravr

import (
	"context"
	"fmt"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/queue"
	"github.com/crowbarz/pioneeravr-go/zone"
)

func (a *PioneerAVR) checkZone(z zone.Zone) error {
	return a.props.CheckZone(z)
}

// PowerOn turns on a zone and returns once the AVR acknowledges. On models
// with power_on_volume_bounce set, a volume up/down pair is chained after
// the acknowledgement to force a volume report.
func (a *PioneerAVR) PowerOn(ctx context.Context, z zone.Zone) error {
	if err := a.checkAvailable("power_on", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	item := queue.NewCommand("turn_on", z)
	item.SkipIfQueued = true
	if _, err := a.submit(ctx, item); err != nil {
		return err
	}
	if z == zone.Main && a.params.Bool(param.PowerOnVolumeBounce) {
		if _, err := a.sendCommand(ctx, Command{Name: "volume_up", Zone: z}); err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "volume_down", Zone: z}); err != nil {
			return err
		}
	}
	return nil
}

// PowerOff turns off a zone.
func (a *PioneerAVR) PowerOff(ctx context.Context, z zone.Zone) error {
	if err := a.checkAvailable("power_off", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	item := queue.NewCommand("turn_off", z)
	item.SkipIfQueued = true
	_, err := a.submit(ctx, item)
	return err
}

// VolumeUp steps the zone volume up.
func (a *PioneerAVR) VolumeUp(ctx context.Context, z zone.Zone) error {
	if err := a.checkAvailable("volume_up", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{Name: "volume_up", Zone: z})
	return err
}

// VolumeDown steps the zone volume down.
func (a *PioneerAVR) VolumeDown(ctx context.Context, z zone.Zone) error {
	if err := a.checkAvailable("volume_down", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{Name: "volume_down", Zone: z})
	return err
}

func (a *PioneerAVR) maxVolumeFor(z zone.Zone) int {
	if v, ok := a.props.MaxVolume(z); ok {
		return v
	}
	if z == zone.Main {
		return a.params.Int(param.MaxVolume)
	}
	return a.params.Int(param.MaxVolumeZoneX)
}

// SetVolumeLevel sets the zone volume. Valid targets are 0..max_volume for
// the zone (185 Main, 81 others unless overridden). On models supporting
// only stepped volume, the target is reached by a deterministic sequence of
// up/down commands inserted at the head of the queue.
func (a *PioneerAVR) SetVolumeLevel(ctx context.Context, target int, z zone.Zone) error {
	if err := a.checkAvailable("set_volume_level", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	maxVolume := a.maxVolumeFor(z)
	if target < 0 || target > maxVolume {
		return avrerr.NewValidation("volume %d out of range for %s (max %d)", target, z.String(), maxVolume)
	}

	if a.params.Bool(param.VolumeStepOnly) {
		return a.stepVolume(ctx, target, z)
	}

	volLen := 2
	if z == zone.Main {
		volLen = 3
	}
	prefix := fmt.Sprintf("%0*d", volLen, target)
	_, err := a.sendCommand(ctx, Command{Name: "set_volume_level", Zone: z, Prefix: prefix})
	return err
}

// stepVolume expands a volume change into up/down steps pushed at the head
// of the queue so no other command interleaves.
func (a *PioneerAVR) stepVolume(ctx context.Context, target int, z zone.Zone) error {
	current, ok := a.props.Volume(z)
	if !ok {
		return avrerr.NewValidation("volume for %s is not known yet", z.String())
	}
	name := "volume_up"
	steps := target - current
	if steps < 0 {
		name = "volume_down"
		steps = -steps
	}
	if steps == 0 {
		return nil
	}

	items := make([]*queue.Item, steps)
	for i := range items {
		item := queue.NewCommand(name, z)
		item.InsertAt = i
		items[i] = item
		a.enqueue(item)
	}
	for _, item := range items {
		select {
		case err := <-item.Done():
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return avrerr.NewCancelled("set_volume_level")
		}
	}
	return nil
}

// MuteOn mutes a zone.
func (a *PioneerAVR) MuteOn(ctx context.Context, z zone.Zone) error {
	if err := a.checkAvailable("mute_on", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{Name: "mute_on", Zone: z})
	return err
}

// MuteOff unmutes a zone.
func (a *PioneerAVR) MuteOff(ctx context.Context, z zone.Zone) error {
	if err := a.checkAvailable("mute_off", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{Name: "mute_off", Zone: z})
	return err
}

// SelectSource selects the input source for a zone by display name. Names
// mapping to more than one source ID cannot be resolved; use
// SelectSourceID instead.
func (a *PioneerAVR) SelectSource(ctx context.Context, source string, z zone.Zone) error {
	if err := a.checkAvailable("select_source", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	id, err := a.props.SourceIDByName(source)
	if err != nil {
		return err
	}
	_, err = a.sendCommand(ctx, Command{Name: "select_source", Zone: z, Prefix: id})
	return err
}

// SelectSourceID selects the input source for a zone by source ID.
func (a *PioneerAVR) SelectSourceID(ctx context.Context, id int, z zone.Zone) error {
	if err := a.checkAvailable("select_source", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	if id < 0 || id > a.params.Int(param.MaxSourceID) {
		return avrerr.NewValidation("source id %d out of range", id)
	}
	_, err := a.sendCommand(ctx, Command{
		Name: "select_source", Zone: z, Prefix: fmt.Sprintf("%02d", id),
	})
	return err
}

// SelectListeningModeID sets the listening mode by wire ID.
func (a *PioneerAVR) SelectListeningModeID(ctx context.Context, id string) error {
	if err := a.checkAvailable("select_listening_mode", false); err != nil {
		return err
	}
	if _, ok := a.props.ListeningModes()[id]; !ok {
		return avrerr.NewValidation("listening mode %q not available", id)
	}
	_, err := a.sendCommand(ctx, Command{Name: "set_listening_mode", Zone: zone.Main, Prefix: id})
	return err
}

// SelectListeningMode sets the listening mode by display name.
func (a *PioneerAVR) SelectListeningMode(ctx context.Context, name string) error {
	id, ok := a.props.ListeningModeIDByName(name)
	if !ok {
		return avrerr.NewValidation("listening mode %q not available", name)
	}
	return a.SelectListeningModeID(ctx, id)
}

// ListeningModes returns the listening modes selectable on this AVR.
func (a *PioneerAVR) ListeningModes() map[string]string {
	return a.props.ListeningModes()
}
