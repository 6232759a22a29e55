package pioneeravr

import (
	"context"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/commandset"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// SupportedMediaControls returns the media control actions valid for the
// zone's current source, or nil when the source has no transport controls.
func (a *PioneerAVR) SupportedMediaControls(z zone.Zone) []string {
	mode, ok := a.props.MediaControlMode(z)
	if !ok || mode == "" {
		return nil
	}
	commands := commandset.MediaControlCommands[mode]
	if commands == nil {
		return nil
	}
	actions := make([]string, 0, len(commands))
	for action := range commands {
		actions = append(actions, action)
	}
	return actions
}

// MediaControl performs a transport action (play, pause, stop, ff, rw,
// next, previous, repeat, shuffle) for the zone's current source. Transport
// commands are always issued against the Main zone.
func (a *PioneerAVR) MediaControl(ctx context.Context, action string, z zone.Zone) error {
	if err := a.checkAvailable("media_control", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	mode, ok := a.props.MediaControlMode(z)
	if !ok || mode == "" {
		return avrerr.NewValidation("current source for %s does not support media controls", z.String())
	}
	name, ok := commandset.MediaControlCommands[mode][action]
	if !ok {
		return avrerr.NewValidation("current source for %s does not support action %q", z.String(), action)
	}
	_, err := a.sendCommand(ctx, Command{Name: name, Zone: zone.Main})
	return err
}

// SetSourceName renames an input on the AVR. Names are limited to 14
// characters.
func (a *PioneerAVR) SetSourceName(ctx context.Context, sourceID, name string) error {
	if err := a.checkAvailable("set_source_name", false); err != nil {
		return err
	}
	if len(name) > 14 {
		return avrerr.NewValidation("source name %q is longer than 14 characters", name)
	}
	if a.props.SourceNameByID(sourceID) == name {
		return nil
	}
	_, err := a.sendCommand(ctx, Command{
		Name: "set_source_name", Zone: zone.Main, Prefix: name, Suffix: sourceID,
	})
	return err
}

// ResetSourceName restores the factory name for an input.
func (a *PioneerAVR) ResetSourceName(ctx context.Context, sourceID string) error {
	if err := a.checkAvailable("set_source_name", false); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{
		Name: "set_default_source_name", Zone: zone.Main, Suffix: sourceID,
	})
	return err
}
