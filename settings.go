package pioneeravr

import (
	"context"
	"fmt"
	"strings"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/commandset"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// ToneSettings selects the tone mode and levels for a zone. Nil fields are
// left unchanged.
type ToneSettings struct {
	Tone   string // "Bypass", "ON", "TONE (Cyclic)"
	Treble *int   // -6..6 dB
	Bass   *int   // -6..6 dB
}

// SetToneSettings applies tone settings to a zone. Treble and bass are only
// sent while the zone tone status is ON.
func (a *PioneerAVR) SetToneSettings(ctx context.Context, settings ToneSettings, z zone.Zone) error {
	if err := a.checkAvailable("set_tone_settings", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	tone := a.props.Tone(z)
	if tone == nil {
		return avrerr.NewValidation("tone controls are not available for %s", z.String())
	}
	if settings.Treble != nil && (*settings.Treble < -6 || *settings.Treble > 6) {
		return avrerr.NewValidation("invalid treble value %d", *settings.Treble)
	}
	if settings.Bass != nil && (*settings.Bass < -6 || *settings.Bass > 6) {
		return avrerr.NewValidation("invalid bass value %d", *settings.Bass)
	}

	if settings.Tone != "" {
		code, err := commandset.CodeForValue(commandset.ToneModes, settings.Tone)
		if err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_tone_mode", Zone: z, Prefix: code}); err != nil {
			return err
		}
		tone = a.props.Tone(z)
	}

	if tone["status"] != "ON" {
		return nil
	}
	if settings.Treble != nil {
		code, err := commandset.CodeForValue(commandset.ToneDBValues, fmt.Sprintf("%ddb", *settings.Treble))
		if err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_tone_treble", Zone: z, Prefix: code}); err != nil {
			return err
		}
	}
	if settings.Bass != nil {
		code, err := commandset.CodeForValue(commandset.ToneDBValues, fmt.Sprintf("%ddb", *settings.Bass))
		if err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_tone_bass", Zone: z, Prefix: code}); err != nil {
			return err
		}
	}
	return nil
}

// AmpSettings selects amplifier function settings. Empty/nil fields are left
// unchanged; each setting is only sent when the AVR has reported supporting
// it.
type AmpSettings struct {
	SpeakerConfig   string // commandset.SpeakerModes values
	HDMIOut         string // commandset.HDMIOutModes values
	HDMIAudioOutput *bool
	PQLS            *bool
}

// SetAmpSettings applies amplifier settings for a zone.
func (a *PioneerAVR) SetAmpSettings(ctx context.Context, settings AmpSettings, z zone.Zone) error {
	if err := a.checkAvailable("set_amp_settings", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	amp := a.props.Topic("amp")

	if _, ok := amp["speakers"]; ok && settings.SpeakerConfig != "" {
		code, err := commandset.CodeForValue(commandset.SpeakerModes, settings.SpeakerConfig)
		if err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_amp_speaker_status", Zone: z, Prefix: code}); err != nil {
			return err
		}
	}
	if _, ok := amp["hdmi_out"]; ok && settings.HDMIOut != "" {
		code, err := commandset.CodeForValue(commandset.HDMIOutModes, settings.HDMIOut)
		if err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_amp_hdmi_out_status", Zone: z, Prefix: code}); err != nil {
			return err
		}
	}
	if _, ok := amp["hdmi_audio"]; ok && settings.HDMIAudioOutput != nil {
		if _, err := a.sendCommand(ctx, Command{
			Name: "set_amp_hdmi_audio_status", Zone: z, Prefix: boolCode(*settings.HDMIAudioOutput),
		}); err != nil {
			return err
		}
	}
	if _, ok := amp["pqls"]; ok && settings.PQLS != nil {
		if _, err := a.sendCommand(ctx, Command{
			Name: "set_amp_pqls_status", Zone: z, Prefix: boolCode(*settings.PQLS),
		}); err != nil {
			return err
		}
	}
	return nil
}

// SetPanelLock sets the front panel lock mode.
func (a *PioneerAVR) SetPanelLock(ctx context.Context, panelLock string) error {
	if err := a.checkAvailable("set_panel_lock", false); err != nil {
		return err
	}
	code, err := commandset.CodeForValue(commandset.PanelLockModes, panelLock)
	if err != nil {
		return err
	}
	_, err = a.sendCommand(ctx, Command{Name: "set_amp_panel_lock", Zone: zone.Main, Prefix: code})
	return err
}

// SetRemoteLock enables or disables the remote control lock.
func (a *PioneerAVR) SetRemoteLock(ctx context.Context, locked bool) error {
	if err := a.checkAvailable("set_remote_lock", false); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{
		Name: "set_amp_remote_lock", Zone: zone.Main, Prefix: boolCode(locked),
	})
	return err
}

// SetDimmer sets the front display dimmer mode.
func (a *PioneerAVR) SetDimmer(ctx context.Context, dimmer string) error {
	if err := a.checkAvailable("set_dimmer", false); err != nil {
		return err
	}
	code, err := commandset.CodeForValue(commandset.DimmerModes, dimmer)
	if err != nil {
		return err
	}
	_, err = a.sendCommand(ctx, Command{Name: "set_amp_dimmer", Zone: zone.Main, Prefix: code})
	return err
}

// SetChannelLevel sets the level (gain) in dB for an amplifier channel in a
// zone. Levels range -12..12 in 0.5 dB steps.
func (a *PioneerAVR) SetChannelLevel(ctx context.Context, channel string, level float64, z zone.Zone) error {
	if err := a.checkAvailable("set_channel_levels", false); err != nil {
		return err
	}
	if err := a.checkZone(z); err != nil {
		return err
	}
	channel = strings.ToUpper(channel)
	levels := a.props.ChannelLevels(z)
	if levels == nil {
		return avrerr.NewValidation("channel levels not supported for %s", z.String())
	}
	if _, ok := levels[channel]; !ok {
		return avrerr.NewValidation("invalid channel %q for %s", channel, z.String())
	}
	wire := int(level*2) + 50
	prefix := padChannel(channel) + fmt.Sprintf("%d", wire)
	_, err := a.sendCommand(ctx, Command{Name: "set_channel_levels", Zone: z, Prefix: prefix})
	return err
}

// VideoSettings holds the Main zone video adjustments. Nil/empty fields are
// left unchanged. Integer adjustments are biased per the wire protocol.
type VideoSettings struct {
	Resolution          string
	Converter           *bool
	PureCinema          string
	ProgMotion          *int
	StreamSmoother      string
	AdvancedVideoAdjust string
	YNR                 *int
	CNR                 *int
	BNR                 *int
	MNR                 *int
	Detail              *int
	Sharpness           *int
	Brightness          *int
	Contrast            *int
	Hue                 *int
	Chroma              *int
	BlackSetup          *bool
	Aspect              string
}

// SetVideoSettings applies video settings. Video adjustments are only
// available on the Main zone.
func (a *PioneerAVR) SetVideoSettings(ctx context.Context, settings VideoSettings, z zone.Zone) error {
	if err := a.checkAvailable("set_video_settings", false); err != nil {
		return err
	}
	if z != zone.Main {
		return avrerr.NewValidation("video settings not supported for %s", z.String())
	}

	type coded struct {
		name  string
		codes map[string]string
		value string
	}
	for _, s := range []coded{
		{"resolution", commandset.VideoResolutionModes, settings.Resolution},
		{"pure_cinema", commandset.VideoPureCinemaModes, settings.PureCinema},
		{"stream_smoother", commandset.VideoStreamSmootherModes, settings.StreamSmoother},
		{"advanced_video_adjust", commandset.AdvancedVideoAdjustModes, settings.AdvancedVideoAdjust},
		{"aspect", commandset.VideoAspectModes, settings.Aspect},
	} {
		if s.value == "" {
			continue
		}
		code, err := commandset.CodeForValue(s.codes, s.value)
		if err != nil {
			return err
		}
		if s.name == "resolution" && !containsString(a.params.Strings(param.VideoResolutionModes), code) {
			return avrerr.NewValidation("resolution %q is not supported by the current configuration", s.value)
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_video_" + s.name, Zone: z, Prefix: code}); err != nil {
			return err
		}
	}

	for _, s := range []struct {
		name  string
		value *bool
	}{
		{"converter", settings.Converter},
		{"black_setup", settings.BlackSetup},
	} {
		if s.value == nil {
			continue
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_video_" + s.name, Zone: z, Prefix: boolCode(*s.value)}); err != nil {
			return err
		}
	}

	// Centred adjustments: wire value 50 is zero. prog_motion and the noise
	// reduction settings use a doubled bias.
	for _, s := range []struct {
		name  string
		value *int
		bias  int
	}{
		{"prog_motion", settings.ProgMotion, 100},
		{"ynr", settings.YNR, 100},
		{"cnr", settings.CNR, 100},
		{"bnr", settings.BNR, 100},
		{"mnr", settings.MNR, 100},
		{"detail", settings.Detail, 50},
		{"sharpness", settings.Sharpness, 50},
		{"brightness", settings.Brightness, 50},
		{"contrast", settings.Contrast, 50},
		{"hue", settings.Hue, 50},
		{"chroma", settings.Chroma, 50},
	} {
		if s.value == nil {
			continue
		}
		prefix := fmt.Sprintf("%d", *s.value+s.bias)
		if _, err := a.sendCommand(ctx, Command{Name: "set_video_" + s.name, Zone: z, Prefix: prefix}); err != nil {
			return err
		}
	}
	return nil
}

// DSPSettings holds the Main zone DSP adjustments. Nil/empty fields are left
// unchanged.
type DSPSettings struct {
	PhaseControl             string
	SignalSelect             string
	DigitalDialogEnhancement string
	DualMono                 string
	DRC                      string
	HeightGain               string
	VirtualDepth             string
	DigitalFilter            string

	SoundRetriever     *bool
	HiBit              *bool
	FixedPCM           *bool
	LoudnessManagement *bool
	VirtualSB          *bool
	VirtualHeight      *bool
	VirtualWide        *bool
	Panorama           *bool

	SoundDelay       *float64 // seconds, 0.1 frame steps on the wire
	CenterImage      *float64
	PhaseControlPlus *int
	CenterWidth      *int
	Dimension        *int
	Effect           *int
	LFEAtt           *int
}

// SetDSPSettings applies DSP settings. DSP adjustments are only available on
// the Main zone.
func (a *PioneerAVR) SetDSPSettings(ctx context.Context, settings DSPSettings, z zone.Zone) error {
	if err := a.checkAvailable("set_dsp_settings", false); err != nil {
		return err
	}
	if z != zone.Main {
		return avrerr.NewValidation("DSP settings not supported for %s", z.String())
	}

	type coded struct {
		name  string
		codes map[string]string
		value string
	}
	for _, s := range []coded{
		{"phase_control", commandset.DSPPhaseControl, settings.PhaseControl},
		{"signal_select", commandset.DSPSignalSelect, settings.SignalSelect},
		{"digital_dialog_enhancement", commandset.DSPDialogEnhancement, settings.DigitalDialogEnhancement},
		{"dual_mono", commandset.DSPDualMono, settings.DualMono},
		{"drc", commandset.DSPDRC, settings.DRC},
		{"height_gain", commandset.DSPHeightGain, settings.HeightGain},
		{"virtual_depth", commandset.DSPVirtualDepth, settings.VirtualDepth},
		{"digital_filter", commandset.DSPDigitalFilter, settings.DigitalFilter},
	} {
		if s.value == "" {
			continue
		}
		code, err := commandset.CodeForValue(s.codes, s.value)
		if err != nil {
			return err
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_dsp_" + s.name, Zone: z, Prefix: code}); err != nil {
			return err
		}
	}

	for _, s := range []struct {
		name  string
		value *bool
	}{
		{"sound_retriever", settings.SoundRetriever},
		{"hi_bit", settings.HiBit},
		{"fixed_pcm", settings.FixedPCM},
		{"loudness_management", settings.LoudnessManagement},
		{"virtual_sb", settings.VirtualSB},
		{"virtual_height", settings.VirtualHeight},
		{"virtual_wide", settings.VirtualWide},
		{"panorama", settings.Panorama},
	} {
		if s.value == nil {
			continue
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_dsp_" + s.name, Zone: z, Prefix: boolCode(*s.value)}); err != nil {
			return err
		}
	}

	if settings.SoundDelay != nil {
		prefix := fmt.Sprintf("%03d", int(*settings.SoundDelay*10))
		if _, err := a.sendCommand(ctx, Command{Name: "set_dsp_sound_delay", Zone: z, Prefix: prefix}); err != nil {
			return err
		}
	}
	if settings.CenterImage != nil {
		prefix := fmt.Sprintf("%02d", int(*settings.CenterImage*10))
		if _, err := a.sendCommand(ctx, Command{Name: "set_dsp_center_image", Zone: z, Prefix: prefix}); err != nil {
			return err
		}
	}
	for _, s := range []struct {
		name   string
		value  *int
		format func(int) string
	}{
		{"phase_control_plus", settings.PhaseControlPlus, func(v int) string { return fmt.Sprintf("%02d", v) }},
		{"center_width", settings.CenterWidth, func(v int) string { return fmt.Sprintf("%02d", v) }},
		{"dimension", settings.Dimension, func(v int) string { return fmt.Sprintf("%d", v+50) }},
		{"effect", settings.Effect, func(v int) string { return fmt.Sprintf("%02d", v/10) }},
		{"lfe_att", settings.LFEAtt, func(v int) string { return fmt.Sprintf("%d", v/-5) }},
	} {
		if s.value == nil {
			continue
		}
		if _, err := a.sendCommand(ctx, Command{Name: "set_dsp_" + s.name, Zone: z, Prefix: s.format(*s.value)}); err != nil {
			return err
		}
	}
	return nil
}

func boolCode(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
