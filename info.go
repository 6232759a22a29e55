package pioneeravr

import (
	"context"
	"fmt"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// QueryZones probes the AVR for available zones by querying power (and
// volume, unless ignore_volume_check is set) on each. The Main zone must
// respond; zones listed in ignored_zones are not added.
func (a *PioneerAVR) QueryZones(ctx context.Context) error {
	a.log.Info("querying available zones on AVR")
	ignored := a.params.Zones(param.IgnoredZones)
	ignoreVolumeCheck := a.params.Bool(param.IgnoreVolumeCheck)

	probe := func(z zone.Zone, maxVolume int) bool {
		ok, _ := a.trySendCommand(ctx, Command{Name: "query_power", Zone: z})
		if !ok {
			return false
		}
		if !ignoreVolumeCheck {
			if ok, _ = a.trySendCommand(ctx, Command{Name: "query_volume", Zone: z}); !ok {
				return false
			}
		}
		for _, iz := range ignored {
			if iz == z {
				return false
			}
		}
		if a.props.AddZone(z) {
			a.props.SetMaxVolume(z, maxVolume)
		}
		return true
	}

	if !probe(zone.Main, a.params.Int(param.MaxVolume)) {
		return avrerr.NewConnectionFailure("query_zones", fmt.Errorf("main zone not found on AVR"))
	}
	for _, z := range []zone.Zone{zone.Zone2, zone.Zone3, zone.HDZone} {
		probe(z, a.params.Int(param.MaxVolumeZoneX))
	}
	return nil
}

// UpdateZones drops zones newly listed in ignored_zones and re-probes the
// AVR for the rest.
func (a *PioneerAVR) UpdateZones(ctx context.Context) error {
	for _, z := range a.params.Zones(param.IgnoredZones) {
		if a.props.RemoveZone(z) {
			a.log.Info("removing ignored zone", "zone", z.String())
			a.props.NotifyZones([]zone.Zone{z})
		}
	}
	return a.QueryZones(ctx)
}

// QueryDeviceInfo queries model, software version and MAC address. Detecting
// the model selects its parameter profile and recomputes listening modes.
func (a *PioneerAVR) QueryDeviceInfo(ctx context.Context) error {
	a.log.Info("querying device information")
	for _, name := range []string{
		"system_query_model",
		"system_query_software_version",
		"system_query_mac_addr",
	} {
		a.trySendCommand(ctx, Command{Name: name, Zone: zone.Main})
	}
	a.props.UpdateListeningModes()
	return nil
}

// SetSourceDict installs a source dictionary directly, skipping the source
// scan on the AVR.
func (a *PioneerAVR) SetSourceDict(sources map[string]string) {
	a.props.SetSourceDict(sources)
}

// GetSourceDict returns the source dictionary, filtered for a real zone.
func (a *PioneerAVR) GetSourceDict(z zone.Zone) map[string]string {
	return a.props.GetSourceDict(z)
}

// GetSourceList returns the selectable source names for a zone.
func (a *PioneerAVR) GetSourceList(z zone.Zone) []string {
	return a.props.GetSourceList(z)
}

// BuildSourceDict queries the AVR for the name of every source ID up to
// max_source_id and populates the source dictionary from the responses.
func (a *PioneerAVR) BuildSourceDict(ctx context.Context) error {
	if err := a.checkAvailable("build_source_dict", true); err != nil {
		return err
	}
	if err := a.Wait(ctx); err != nil {
		return err
	}
	a.log.Info("querying AVR source names")
	a.props.SetSourceDict(nil)

	timeouts := 0
	for id := 0; id <= a.params.Int(param.MaxSourceID); id++ {
		suffix := fmt.Sprintf("%02d", id)
		_, err := a.SendCommand(ctx, Command{
			Name:        "system_query_source_name",
			Zone:        zone.Main,
			Suffix:      suffix,
			NoRateLimit: true,
		})
		switch {
		case err == nil:
			timeouts = 0
		case avrerr.KindOf(err) == avrerr.ResponseTimeout:
			timeouts++
			a.log.Debug("timeout retrieving source name", "source", suffix, "timeouts", timeouts)
		case avrerr.KindOf(err) == avrerr.AvrError:
			// Source ID not present on this model.
		default:
			return err
		}
	}
	if a.props.SourceCount() == 0 {
		a.log.Warn("no input sources found on AVR")
	}
	return nil
}
