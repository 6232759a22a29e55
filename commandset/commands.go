package commandset

import "github.com/crowbarz/pioneeravr-go/zone"

// perZone builds the common four-zone wire table.
func perZone(main, z2, z3, hdz Wire) map[zone.Zone]Wire {
	return map[zone.Zone]Wire{
		zone.Main:   main,
		zone.Zone2:  z2,
		zone.Zone3:  z3,
		zone.HDZone: hdz,
	}
}

func mainOnly(w Wire) map[zone.Zone]Wire {
	return map[zone.Zone]Wire{zone.Main: w}
}

// videoSettingCodes maps video setting names to their wire code letter.
// Set commands are the bare code, queries prepend "?".
var videoSettingCodes = map[string]string{
	"resolution":            "VTC",
	"converter":             "VTB",
	"pure_cinema":           "VTD",
	"prog_motion":           "VTE",
	"stream_smoother":       "VTF",
	"advanced_video_adjust": "VTG",
	"ynr":                   "VTH",
	"cnr":                   "VTI",
	"bnr":                   "VTJ",
	"mnr":                   "VTK",
	"detail":                "VTL",
	"sharpness":             "VTM",
	"brightness":            "VTN",
	"contrast":              "VTO",
	"hue":                   "VTP",
	"chroma":                "VTQ",
	"black_setup":           "VTR",
	"aspect":                "VTS",
}

// dspSettingCodes maps DSP setting names to their wire code.
var dspSettingCodes = map[string]string{
	"mcacc_memory_set":           "MC",
	"phase_control":              "IS",
	"virtual_sb":                 "VSB",
	"virtual_height":             "VHT",
	"sound_retriever":            "ATA",
	"signal_select":              "SDA",
	"analog_input_att":           "SDB",
	"eq":                         "ATC",
	"standing_wave":              "ATD",
	"phase_control_plus":         "ATE",
	"sound_delay":                "ATF",
	"digital_noise_reduction":    "ATG",
	"digital_dialog_enhancement": "ATH",
	"hi_bit":                     "ATI",
	"dual_mono":                  "ATJ",
	"fixed_pcm":                  "ATK",
	"drc":                        "ATL",
	"lfe_att":                    "ATM",
	"sacd_gain":                  "ATN",
	"auto_delay":                 "ATO",
	"center_width":               "ATP",
	"panorama":                   "ATQ",
	"dimension":                  "ATR",
	"center_image":               "ATS",
	"effect":                     "ATT",
	"height_gain":                "ATU",
	"virtual_depth":              "VDP",
	"digital_filter":             "ATV",
	"loudness_management":        "ATW",
	"virtual_wide":               "VWD",
}

// operationTokens are fire-and-forget remote operation codes, keyed by
// mnemonic suffix under "operation_".
var operationTokens = map[string]string{
	"tuner_edit":          "02TN",
	"tuner_enter":         "03TN",
	"tuner_return":        "04TN",
	"tuner_mpx_noise_cut": "05TN",
	"tuner_display":       "06TN",
	"tuner_pty_search":    "07TN",
	"ipod_play":           "00IP",
	"ipod_pause":          "01IP",
	"ipod_stop":           "02IP",
	"ipod_previous":       "03IP",
	"ipod_next":           "04IP",
	"ipod_rewind":         "05IP",
	"ipod_fastforward":    "06IP",
	"ipod_repeat":         "07IP",
	"ipod_shuffle":        "08IP",
	"ipod_display":        "09IP",
	"ipod_control":        "10IP",
	"ipod_cursor_up":      "13IP",
	"ipod_cursor_down":    "14IP",
	"ipod_cursor_right":   "15IP",
	"ipod_cursor_left":    "16IP",
	"ipod_enter":          "17IP",
	"ipod_return":         "18IP",
	"ipod_top_menu":       "19IP",
	"network_play":        "10NW",
	"network_pause":       "11NW",
	"network_previous":    "12NW",
	"network_next":        "13NW",
	"network_rewind":      "14NW",
	"network_fastforward": "15NW",
	"network_stop":        "20NW",
	"network_repeat":      "34NW",
	"network_random":      "35NW",
	"amp_status_display":  "STS",
	"amp_cursor_up":       "CUP",
	"amp_cursor_down":     "CDN",
	"amp_cursor_right":    "CRI",
	"amp_cursor_left":     "CLE",
	"amp_cursor_enter":    "CEN",
	"amp_cursor_return":   "CRT",
}

// registerCommands installs the built-in Pioneer command table.
func registerCommands(r *Registry) {
	// System identity
	r.RegisterCommand("system_query_mac_addr", mainOnly(Wire{"?SVB", "SVB"}))
	r.RegisterCommand("system_query_software_version", mainOnly(Wire{"?SSI", "SSI"}))
	r.RegisterCommand("system_query_model", mainOnly(Wire{"?RGD", "RGD"}))
	r.RegisterCommand("system_query_source_name", mainOnly(Wire{"?RGB", "RGB"}))
	r.RegisterCommand("set_source_name", mainOnly(Wire{"1RGB", "RGB"}))
	r.RegisterCommand("set_default_source_name", mainOnly(Wire{"0RGB", "RGB"}))

	// Power
	r.RegisterCommand("turn_on", perZone(
		Wire{"PO", "PWR"}, Wire{"APO", "APR"}, Wire{"BPO", "BPR"}, Wire{"ZEO", "ZEP"}))
	r.RegisterCommand("turn_off", perZone(
		Wire{"PF", "PWR"}, Wire{"APF", "APR"}, Wire{"BPF", "BPR"}, Wire{"ZEF", "ZEP"}))
	r.RegisterCommand("query_power", perZone(
		Wire{"?P", "PWR"}, Wire{"?AP", "APR"}, Wire{"?BP", "BPR"}, Wire{"?ZEP", "ZEP"}))

	// Source
	r.RegisterCommand("select_source", perZone(
		Wire{"FN", "FN"}, Wire{"ZS", "Z2F"}, Wire{"ZT", "Z3F"}, Wire{"ZEA", "ZEA"}))
	r.RegisterCommand("query_source_id", perZone(
		Wire{"?F", "FN"}, Wire{"?ZS", "Z2F"}, Wire{"?ZT", "Z3F"}, Wire{"?ZEA", "ZEA"}))

	// Volume
	r.RegisterCommand("volume_up", perZone(
		Wire{"VU", "VOL"}, Wire{"ZU", "ZV"}, Wire{"YU", "YV"}, Wire{"HZU", "XV"}))
	r.RegisterCommand("volume_down", perZone(
		Wire{"VD", "VOL"}, Wire{"ZD", "ZV"}, Wire{"YD", "YV"}, Wire{"HZD", "XV"}))
	r.RegisterCommand("set_volume_level", perZone(
		Wire{"VL", "VOL"}, Wire{"ZV", "ZV"}, Wire{"YV", "YV"}, Wire{"HZV", "XV"}))
	r.RegisterCommand("query_volume", perZone(
		Wire{"?V", "VOL"}, Wire{"?ZV", "ZV"}, Wire{"?YV", "YV"}, Wire{"?HZV", "XV"}))

	// Mute
	r.RegisterCommand("mute_on", perZone(
		Wire{"MO", "MUT"}, Wire{"Z2MO", "Z2MUT"}, Wire{"Z3MO", "Z3MUT"}, Wire{"HZMO", "HZMUT"}))
	r.RegisterCommand("mute_off", perZone(
		Wire{"MF", "MUT"}, Wire{"Z2MF", "Z2MUT"}, Wire{"Z3MF", "Z3MUT"}, Wire{"HZMF", "HZMUT"}))
	r.RegisterCommand("query_mute", perZone(
		Wire{"?M", "MUT"}, Wire{"?Z2M", "Z2MUT"}, Wire{"?Z3M", "Z3MUT"}, Wire{"?HZM", "HZMUT"}))

	// Listening mode
	r.RegisterCommand("query_listening_mode", mainOnly(Wire{"?S", "SR"}))
	r.RegisterCommand("set_listening_mode", mainOnly(Wire{"SR", "SR"}))

	// Tone (Main and Zone 2 only)
	r.RegisterCommand("query_tone_status", map[zone.Zone]Wire{
		zone.Main: {"?TO", "TO"}, zone.Zone2: {"?ZGA", "ZGA"}})
	r.RegisterCommand("query_tone_bass", map[zone.Zone]Wire{
		zone.Main: {"?BA", "BA"}, zone.Zone2: {"?ZGB", "ZGB"}})
	r.RegisterCommand("query_tone_treble", map[zone.Zone]Wire{
		zone.Main: {"?TR", "TR"}, zone.Zone2: {"?ZGC", "ZGC"}})
	r.RegisterCommand("set_tone_mode", map[zone.Zone]Wire{
		zone.Main: {"TO", "TO"}, zone.Zone2: {"ZGA", "ZGA"}})
	r.RegisterCommand("set_tone_bass", map[zone.Zone]Wire{
		zone.Main: {"BA", "BA"}, zone.Zone2: {"ZGB", "ZGB"}})
	r.RegisterCommand("set_tone_treble", map[zone.Zone]Wire{
		zone.Main: {"TR", "TR"}, zone.Zone2: {"ZGC", "ZGC"}})

	// Amplifier functions
	r.RegisterCommand("query_amp_speaker_status", mainOnly(Wire{"?SPK", "SPK"}))
	r.RegisterCommand("set_amp_speaker_status", mainOnly(Wire{"SPK", "SPK"}))
	r.RegisterCommand("query_amp_hdmi_out_status", mainOnly(Wire{"?HO", "HO"}))
	r.RegisterCommand("set_amp_hdmi_out_status", mainOnly(Wire{"HO", "HO"}))
	r.RegisterCommand("query_amp_hdmi_audio_status", mainOnly(Wire{"?HA", "HA"}))
	r.RegisterCommand("set_amp_hdmi_audio_status", mainOnly(Wire{"HA", "HA"}))
	r.RegisterCommand("query_amp_pqls_status", mainOnly(Wire{"?PQ", "PQ"}))
	r.RegisterCommand("set_amp_pqls_status", mainOnly(Wire{"PQ", "PQ"}))
	r.RegisterCommand("set_amp_dimmer", mainOnly(Wire{"SAA", "SAA"}))
	r.RegisterCommand("query_amp_sleep_remain_time", mainOnly(Wire{"?SAB", "SAB"}))
	r.RegisterCommand("set_amp_sleep_remain_time", mainOnly(Wire{"SAB", "SAB"}))
	r.RegisterCommand("query_amp_panel_lock", mainOnly(Wire{"?PKL", "PKL"}))
	r.RegisterCommand("set_amp_panel_lock", mainOnly(Wire{"PKL", "PKL"}))
	r.RegisterCommand("query_amp_remote_lock", mainOnly(Wire{"?RML", "RML"}))
	r.RegisterCommand("set_amp_remote_lock", mainOnly(Wire{"RML", "RML"}))
	r.RegisterCommand("query_system_speaker_system", mainOnly(Wire{"?SSF", "SSF"}))
	r.RegisterCommand("set_system_speaker_system", mainOnly(Wire{"SSF", "SSF"}))

	// Tuner
	r.RegisterCommand("query_tuner_frequency", mainOnly(Wire{"?FR", "FR"}))
	r.RegisterCommand("set_tuner_band_am", mainOnly(Wire{"01TN", "FR"}))
	r.RegisterCommand("set_tuner_band_fm", mainOnly(Wire{"00TN", "FR"}))
	r.RegisterCommand("increase_tuner_frequency", mainOnly(Wire{"TFI", "FR"}))
	r.RegisterCommand("decrease_tuner_frequency", mainOnly(Wire{"TFD", "FR"}))
	r.RegisterCommand("operation_direct_access", mainOnly(Wire{"TDA", "TDA"}))
	r.RegisterCommand("operation_tuner_digit", mainOnly(Wire{"TN", "FR"}))
	r.RegisterCommand("query_tuner_preset", mainOnly(Wire{"?PR", "PR"}))
	r.RegisterCommand("select_tuner_preset", mainOnly(Wire{"PR", "PR"}))
	r.RegisterCommand("increase_tuner_preset", mainOnly(Wire{"TPI", "PR"}))
	r.RegisterCommand("decrease_tuner_preset", mainOnly(Wire{"TPD", "PR"}))

	// Channel levels
	r.RegisterCommand("set_channel_levels", map[zone.Zone]Wire{
		zone.Main: {"CLV", "CLV"}, zone.Zone2: {"ZGE", "ZGE"}, zone.Zone3: {"ZHE", "ZHE"}})

	// Video settings
	for name, code := range videoSettingCodes {
		r.RegisterCommand("set_video_"+name, mainOnly(Wire{code, code}))
		r.RegisterCommand("query_video_"+name, mainOnly(Wire{"?" + code, code}))
	}

	// DSP settings
	for name, code := range dspSettingCodes {
		r.RegisterCommand("set_dsp_"+name, mainOnly(Wire{code, code}))
		r.RegisterCommand("query_dsp_"+name, mainOnly(Wire{"?" + code, code}))
	}

	// Information queries
	r.RegisterCommand("query_audio_information", mainOnly(Wire{"?AST", "AST"}))
	r.RegisterCommand("query_video_information", mainOnly(Wire{"?VST", "VST"}))
	r.RegisterCommand("query_display_information", mainOnly(Wire{"?FL", "FL"}))

	// Remote operations (fire-and-forget)
	for name, token := range operationTokens {
		r.RegisterCommand("operation_"+name, mainOnly(Wire{Token: token}))
	}
}
