package commandset

// MediaControlCommands maps a media control mode to the action -> mnemonic
// table of transport commands it supports. Actions are always issued against
// the Main zone as the AVR has no per-zone transport commands.
var MediaControlCommands = map[string]map[string]string{
	"NETWORK": {
		"play":     "operation_network_play",
		"pause":    "operation_network_pause",
		"stop":     "operation_network_stop",
		"ff":       "operation_network_fastforward",
		"rw":       "operation_network_rewind",
		"next":     "operation_network_next",
		"previous": "operation_network_previous",
		"repeat":   "operation_network_repeat",
		"shuffle":  "operation_network_random",
	},
	"IPOD": {
		"play":     "operation_ipod_play",
		"pause":    "operation_ipod_pause",
		"stop":     "operation_ipod_stop",
		"ff":       "operation_ipod_fastforward",
		"rw":       "operation_ipod_rewind",
		"next":     "operation_ipod_next",
		"previous": "operation_ipod_previous",
		"repeat":   "operation_ipod_repeat",
		"shuffle":  "operation_ipod_shuffle",
	},
	"TUNER": {
		"next":     "increase_tuner_preset",
		"previous": "decrease_tuner_preset",
	},
}
