package commandset

import "github.com/crowbarz/pioneeravr-go/avrerr"

// Wire code to display value maps for settings shared by the decoders and the
// facade setters.

var ToneModes = map[string]string{
	"0": "Bypass",
	"1": "ON",
	"9": "TONE (Cyclic)",
}

var ToneDBValues = map[string]string{
	"00": "6db",
	"01": "5db",
	"02": "4db",
	"03": "3db",
	"04": "2db",
	"05": "1db",
	"06": "0db",
	"07": "-1db",
	"08": "-2db",
	"09": "-3db",
	"10": "-4db",
	"11": "-5db",
	"12": "-6db",
}

var SpeakerModes = map[string]string{
	"0": "OFF",
	"1": "A",
	"2": "B",
	"3": "A+B",
}

var HDMIOutModes = map[string]string{
	"0": "ALL",
	"1": "HDMI 1",
	"2": "HDMI 2",
	"3": "HDMI (cyclic)",
}

var HDMIAudioModes = map[string]string{
	"0": "AMP",
	"1": "PASSTHROUGH",
}

var PQLSModes = map[string]string{
	"0": "OFF",
	"1": "AUTO",
}

var PanelLockModes = map[string]string{
	"0": "OFF",
	"1": "PANEL ONLY",
	"2": "PANEL + VOLUME",
}

var AmpModes = map[string]string{
	"0": "AMP ON",
	"1": "AMP Front OFF",
	"2": "AMP Front & Center OFF",
	"3": "AMP OFF",
}

var DimmerModes = map[string]string{
	"0": "Brightest",
	"1": "Bright",
	"2": "Dark",
	"3": "Off",
}

var VideoResolutionModes = map[string]string{
	"0": "AUTO",
	"1": "PURE",
	"3": "480/576p",
	"4": "720p",
	"5": "1080i",
	"6": "1080p",
	"7": "1080/24p",
}

var VideoPureCinemaModes = map[string]string{
	"0": "AUTO",
	"1": "ON",
	"2": "OFF",
}

var VideoStreamSmootherModes = map[string]string{
	"0": "OFF",
	"1": "ON",
	"2": "AUTO",
}

var VideoAspectModes = map[string]string{
	"0": "PASSTHROUGH",
	"1": "NORMAL",
}

var AdvancedVideoAdjustModes = map[string]string{
	"0": "PDP",
	"1": "LCD",
	"2": "FPJ",
	"3": "Professional",
	"4": "Memory",
}

var DSPPhaseControl = map[string]string{
	"0": "off",
	"1": "on",
	"2": "full band on",
}

var DSPSignalSelect = map[string]string{
	"0": "AUTO",
	"1": "ANALOG",
	"2": "DIGITAL",
	"3": "HDMI",
}

var DSPDialogEnhancement = map[string]string{
	"0": "off",
	"1": "flat",
	"2": "+1",
	"3": "+2",
	"4": "+3",
	"5": "+4",
}

var DSPDualMono = map[string]string{
	"0": "CH1+CH2",
	"1": "CH1",
	"2": "CH2",
}

var DSPDRC = map[string]string{
	"0": "off",
	"1": "auto",
	"2": "mid",
	"3": "max",
}

var DSPHeightGain = map[string]string{
	"0": "low",
	"1": "mid",
	"2": "high",
}

var DSPVirtualDepth = map[string]string{
	"0": "off",
	"1": "min",
	"2": "mid",
	"3": "max",
}

var DSPDigitalFilter = map[string]string{
	"0": "slow",
	"1": "sharp",
	"2": "short",
}

// CodeForValue reverse-resolves a display value to its wire code. Returns a
// Validation error when the value is not part of the map.
func CodeForValue(codes map[string]string, value string) (string, error) {
	for code, v := range codes {
		if v == value {
			return code, nil
		}
	}
	return "", avrerr.NewValidation("value %q is not valid for this setting", value)
}
