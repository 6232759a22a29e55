package param

import "github.com/crowbarz/pioneeravr-go/zone"

// Key names a parameter. The key set is closed; unknown keys are accepted in
// lenient mode but logged.
type Key string

const (
	Model                    Key = "model"
	IgnoredZones             Key = "ignored_zones"
	CommandDelay             Key = "command_delay" // seconds between outbound commands
	MaxSourceID              Key = "max_source_id"
	MaxVolume                Key = "max_volume"
	MaxVolumeZoneX           Key = "max_volume_zonex"
	PowerOnVolumeBounce      Key = "power_on_volume_bounce"
	VolumeStepOnly           Key = "volume_step_only"
	IgnoreVolumeCheck        Key = "ignore_volume_check"
	Zone1Sources             Key = "zone_1_sources"
	Zone2Sources             Key = "zone_2_sources"
	Zone3Sources             Key = "zone_3_sources"
	HDZoneSources            Key = "hdzone_sources"
	SpeakerSystemModes       Key = "amp_speaker_system_modes"
	ExtraListeningModes      Key = "extra_amp_listening_modes"
	EnabledListeningModes    Key = "enabled_amp_listening_modes"
	DisabledListeningModes   Key = "disabled_amp_listening_modes"
	VideoResolutionModes     Key = "video_resolution_modes"
	MHLSource                Key = "mhl_source"
	EnabledFunctions         Key = "enabled_functions"
	DisableAutoQuery         Key = "disable_auto_query"
	TunerAMFrequencyStep     Key = "am_frequency_step"
	AlwaysPoll               Key = "always_poll"
	ScanInterval             Key = "scan_interval" // seconds, 0 disables polling
	Timeout                  Key = "timeout"       // seconds
	ZonesInitialRefresh      Key = "zones_initial_refresh"
)

// ZoneSources maps a zone to its source-list parameter.
var ZoneSources = map[zone.Zone]Key{
	zone.Main:   Zone1Sources,
	zone.Zone2:  Zone2Sources,
	zone.Zone3:  Zone3Sources,
	zone.HDZone: HDZoneSources,
}

// DefaultEnabledFunctions are the query categories refreshed by default.
var DefaultEnabledFunctions = []string{
	"basic", "audio", "amp", "dsp", "tone", "channels",
	"video", "tuner", "system", "display",
}

func defaults() map[Key]any {
	return map[Key]any{
		IgnoredZones:           []zone.Zone{},
		CommandDelay:           0.1,
		MaxSourceID:            60,
		MaxVolume:              185,
		MaxVolumeZoneX:         81,
		PowerOnVolumeBounce:    false,
		VolumeStepOnly:         false,
		IgnoreVolumeCheck:      false,
		AlwaysPoll:             false,
		ScanInterval:           60.0,
		Timeout:                5.0,
		DisableAutoQuery:       false,
		EnabledFunctions:       DefaultEnabledFunctions,
		Zone1Sources:           []string{},
		Zone2Sources: []string{
			"04", "06", "15", "26", "38", "53", "41", "44", "45", "17",
			"13", "05", "01", "02", "33", "46", "47", "99", "10",
		},
		Zone3Sources: []string{
			"04", "06", "15", "26", "38", "53", "41", "44", "45", "17",
			"13", "05", "01", "02", "33", "46", "47", "99", "10",
		},
		HDZoneSources: []string{
			"25", "04", "06", "10", "15", "19", "20", "21", "22", "23",
			"24", "34", "35", "26", "38", "53", "41", "44", "45", "17",
			"13", "33", "31", "46", "47", "48",
		},
		ExtraListeningModes:    map[string]string{},
		EnabledListeningModes:  []string{},
		DisabledListeningModes: []string{},
		VideoResolutionModes:   []string{"0", "1", "3", "4", "5", "6", "7"},
		MHLSource:              "",
		ZonesInitialRefresh:    []zone.Zone{},
	}
}

var knownKeys = map[Key]bool{
	Model: true, IgnoredZones: true, CommandDelay: true, MaxSourceID: true,
	MaxVolume: true, MaxVolumeZoneX: true, PowerOnVolumeBounce: true,
	VolumeStepOnly: true, IgnoreVolumeCheck: true, Zone1Sources: true,
	Zone2Sources: true, Zone3Sources: true, HDZoneSources: true,
	SpeakerSystemModes: true, ExtraListeningModes: true,
	EnabledListeningModes: true, DisabledListeningModes: true,
	VideoResolutionModes: true, MHLSource: true, EnabledFunctions: true,
	DisableAutoQuery: true, TunerAMFrequencyStep: true, AlwaysPoll: true,
	ScanInterval: true, Timeout: true, ZonesInitialRefresh: true,
}

// Known reports whether k is part of the closed parameter set.
func Known(k Key) bool { return knownKeys[k] }
