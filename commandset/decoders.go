package commandset

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/properties"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// MediaControlSources maps source IDs to the media control command set their
// transport accepts.
var MediaControlSources = map[string]string{
	"26": "NETWORK",
	"38": "NETWORK",
	"44": "NETWORK",
	"41": "NETWORK",
	"53": "NETWORK",
	"02": "TUNER",
	"13": "ADAPTERPORT",
	"17": "IPOD",
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func zoneSlice(z zone.Zone) []zone.Zone { return []zone.Zone{z} }

func decodePower(z zone.Zone) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		props.SetPower(z, digits(rest) == "0")
		return zoneSlice(z)
	}
}

func decodeVolume(z zone.Zone) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		v, err := strconv.Atoi(digits(rest))
		if err != nil {
			return nil
		}
		props.SetVolume(z, v)
		return zoneSlice(z)
	}
}

func decodeMute(z zone.Zone) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		props.SetMute(z, digits(rest) == "0")
		return zoneSlice(z)
	}
}

func decodeSource(z zone.Zone) Decoder {
	return func(rest string, props *properties.Properties, params *param.Params) []zone.Zone {
		id := digits(rest)
		if id == "" {
			return nil
		}
		props.SetSourceID(z, id)
		if mode, ok := MediaControlSources[id]; ok {
			props.SetMediaControlMode(z, mode)
		} else if mhl := params.String(param.MHLSource); mhl != "" && id == mhl {
			props.SetMediaControlMode(z, "MHL")
		} else {
			props.SetMediaControlMode(z, "")
		}
		return zoneSlice(z)
	}
}

func decodeListeningMode(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	props.SetListeningMode(strings.TrimSpace(rest))
	return zoneSlice(zone.Main)
}

func decodeToneValue(z zone.Zone, key string, codes map[string]string) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		value, ok := codes[strings.TrimSpace(rest)]
		if !ok {
			return nil
		}
		props.SetTone(z, key, value)
		return zoneSlice(z)
	}
}

func decodeAmpValue(key string, codes map[string]string) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		rest = strings.TrimSpace(rest)
		value := rest
		if codes != nil {
			v, ok := codes[rest]
			if !ok {
				return nil
			}
			value = v
		}
		props.SetTopic(properties.TopicAmp, key, value)
		return zoneSlice(zone.Main)
	}
}

func decodeSpeakerSystem(rest string, props *properties.Properties, params *param.Params) []zone.Zone {
	rest = strings.TrimSpace(rest)
	value := rest
	if modes := params.StringMap(param.SpeakerSystemModes); modes != nil {
		if v, ok := modes[rest]; ok {
			value = v
		}
	}
	props.SetTopic(properties.TopicSystem, "speaker_system", value)
	return zoneSlice(zone.Main)
}

func decodeFMFrequency(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	raw, err := strconv.Atoi(digits(rest))
	if err != nil {
		return nil
	}
	props.SetTopic(properties.TopicTuner, "band", "FM")
	props.SetTopic(properties.TopicTuner, "frequency", float64(raw)/100)
	return zoneSlice(zone.Main)
}

func decodeAMFrequency(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	raw, err := strconv.Atoi(digits(rest))
	if err != nil {
		return nil
	}
	props.SetTopic(properties.TopicTuner, "band", "AM")
	props.SetTopic(properties.TopicTuner, "frequency", float64(raw))
	return zoneSlice(zone.Main)
}

func decodeTunerPreset(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	if len(rest) < 2 {
		return nil
	}
	preset, err := strconv.Atoi(rest[1:])
	if err != nil {
		return nil
	}
	props.SetTopic(properties.TopicTuner, "class", rest[:1])
	props.SetTopic(properties.TopicTuner, "preset", preset)
	return zoneSlice(zone.Main)
}

var (
	modelRE   = regexp.MustCompile(`<([^>/]{5,})(/.[^>]*)?>`)
	versionRE = regexp.MustCompile(`"([^"]*)"`)
)

func decodeModel(rest string, props *properties.Properties, params *param.Params) []zone.Zone {
	model := "unknown"
	if m := modelRE.FindStringSubmatch(rest); m != nil {
		model = m[1]
	}
	if props.SetModel(model) && model != "unknown" {
		params.SetDefaultParamsModel(model)
	}
	return zoneSlice(zone.All)
}

func decodeSoftwareVersion(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	version := "unknown"
	if m := versionRE.FindStringSubmatch(rest); m != nil {
		version = m[1]
	}
	props.SetSoftwareVersion(version)
	return zoneSlice(zone.All)
}

func decodeMACAddr(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	rest = strings.TrimSpace(rest)
	var pairs []string
	for i := 0; i+2 <= len(rest); i += 2 {
		pairs = append(pairs, rest[i:i+2])
	}
	props.SetMACAddr(strings.Join(pairs, ":"))
	return zoneSlice(zone.All)
}

// decodeSourceName handles RGB responses: two-digit source ID, one-digit
// default/renamed flag, then the display name.
func decodeSourceName(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	if len(rest) < 3 {
		return nil
	}
	id := rest[:2]
	name := rest[3:]
	props.SaveSource(id, name)
	return zoneSlice(zone.All)
}

func decodeChannelLevel(z zone.Zone) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		// Channel token padded to 3 with underscores, then the level code.
		if len(rest) < 4 {
			return nil
		}
		channel := strings.TrimRight(rest[:3], "_")
		raw, err := strconv.Atoi(rest[3:])
		if err != nil {
			return nil
		}
		props.SetChannelLevel(z, channel, float64(raw-50)/2)
		return zoneSlice(z)
	}
}

func decodeDisplayText(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
	props.SetTopic(properties.TopicAmp, "display", strings.TrimSpace(rest))
	return zoneSlice(zone.All)
}

func decodeTopicValue(t properties.Topic, key string, codes map[string]string) Decoder {
	return func(rest string, props *properties.Properties, _ *param.Params) []zone.Zone {
		rest = strings.TrimSpace(rest)
		value := rest
		if codes != nil {
			v, ok := codes[rest]
			if !ok {
				return nil
			}
			value = v
		}
		props.SetTopic(t, key, value)
		return zoneSlice(zone.Main)
	}
}

// registerBasicDecoders installs decoders for the responses the refresh
// cycle and the facade operations rely on. Further decoders may be layered
// on by the caller; longest prefix still wins.
func registerBasicDecoders(r *Registry) {
	// Power
	r.RegisterDecoder("PWR", decodePower(zone.Main))
	r.RegisterDecoder("APR", decodePower(zone.Zone2))
	r.RegisterDecoder("BPR", decodePower(zone.Zone3))
	r.RegisterDecoder("ZEP", decodePower(zone.HDZone))

	// Volume
	r.RegisterDecoder("VOL", decodeVolume(zone.Main))
	r.RegisterDecoder("ZV", decodeVolume(zone.Zone2))
	r.RegisterDecoder("YV", decodeVolume(zone.Zone3))
	r.RegisterDecoder("XV", decodeVolume(zone.HDZone))

	// Mute
	r.RegisterDecoder("MUT", decodeMute(zone.Main))
	r.RegisterDecoder("Z2MUT", decodeMute(zone.Zone2))
	r.RegisterDecoder("Z3MUT", decodeMute(zone.Zone3))
	r.RegisterDecoder("HZMUT", decodeMute(zone.HDZone))

	// Source
	r.RegisterDecoder("FN", decodeSource(zone.Main))
	r.RegisterDecoder("Z2F", decodeSource(zone.Zone2))
	r.RegisterDecoder("Z3F", decodeSource(zone.Zone3))
	r.RegisterDecoder("ZEA", decodeSource(zone.HDZone))

	// Listening mode
	r.RegisterDecoder("SR", decodeListeningMode)

	// Tone
	r.RegisterDecoder("TO", decodeToneValue(zone.Main, "status", ToneModes))
	r.RegisterDecoder("BA", decodeToneValue(zone.Main, "bass", ToneDBValues))
	r.RegisterDecoder("TR", decodeToneValue(zone.Main, "treble", ToneDBValues))
	r.RegisterDecoder("ZGA", decodeToneValue(zone.Zone2, "status", ToneModes))
	r.RegisterDecoder("ZGB", decodeToneValue(zone.Zone2, "bass", ToneDBValues))
	r.RegisterDecoder("ZGC", decodeToneValue(zone.Zone2, "treble", ToneDBValues))

	// Amplifier
	r.RegisterDecoder("SPK", decodeAmpValue("speakers", SpeakerModes))
	r.RegisterDecoder("HO", decodeAmpValue("hdmi_out", HDMIOutModes))
	r.RegisterDecoder("HA", decodeAmpValue("hdmi_audio", HDMIAudioModes))
	r.RegisterDecoder("PQ", decodeAmpValue("pqls", PQLSModes))
	r.RegisterDecoder("SAA", decodeAmpValue("dimmer", DimmerModes))
	r.RegisterDecoder("SAB", decodeAmpValue("sleep", nil))
	r.RegisterDecoder("PKL", decodeAmpValue("panel_lock", PanelLockModes))
	r.RegisterDecoder("RML", decodeAmpValue("remote_lock", nil))
	r.RegisterDecoder("SSF", decodeSpeakerSystem)

	// Tuner
	r.RegisterDecoder("FRF", decodeFMFrequency)
	r.RegisterDecoder("FRA", decodeAMFrequency)
	r.RegisterDecoder("PR", decodeTunerPreset)

	// System identity
	r.RegisterDecoder("RGD", decodeModel)
	r.RegisterDecoder("SSI", decodeSoftwareVersion)
	r.RegisterDecoder("SVB", decodeMACAddr)
	r.RegisterDecoder("RGB", decodeSourceName)

	// Channel levels
	r.RegisterDecoder("CLV", decodeChannelLevel(zone.Main))
	r.RegisterDecoder("ZGE", decodeChannelLevel(zone.Zone2))
	r.RegisterDecoder("ZHE", decodeChannelLevel(zone.Zone3))

	// Display
	r.RegisterDecoder("FL", decodeDisplayText)

	// Video settings
	r.RegisterDecoder("VTC", decodeTopicValue(properties.TopicVideo, "resolution", VideoResolutionModes))
	r.RegisterDecoder("VTD", decodeTopicValue(properties.TopicVideo, "pure_cinema", VideoPureCinemaModes))
	r.RegisterDecoder("VTF", decodeTopicValue(properties.TopicVideo, "stream_smoother", VideoStreamSmootherModes))
	r.RegisterDecoder("VTG", decodeTopicValue(properties.TopicVideo, "advanced_video_adjust", AdvancedVideoAdjustModes))
	r.RegisterDecoder("VTS", decodeTopicValue(properties.TopicVideo, "aspect", VideoAspectModes))

	// DSP settings
	r.RegisterDecoder("IS", decodeTopicValue(properties.TopicDSP, "phase_control", DSPPhaseControl))
	r.RegisterDecoder("SDA", decodeTopicValue(properties.TopicDSP, "signal_select", DSPSignalSelect))
	r.RegisterDecoder("ATH", decodeTopicValue(properties.TopicDSP, "digital_dialog_enhancement", DSPDialogEnhancement))
	r.RegisterDecoder("ATJ", decodeTopicValue(properties.TopicDSP, "dual_mono", DSPDualMono))
	r.RegisterDecoder("ATL", decodeTopicValue(properties.TopicDSP, "drc", DSPDRC))
	r.RegisterDecoder("ATU", decodeTopicValue(properties.TopicDSP, "height_gain", DSPHeightGain))
	r.RegisterDecoder("VDP", decodeTopicValue(properties.TopicDSP, "virtual_depth", DSPVirtualDepth))
	r.RegisterDecoder("ATV", decodeTopicValue(properties.TopicDSP, "digital_filter", DSPDigitalFilter))
}
