package properties

import (
	"sort"

	"github.com/crowbarz/pioneeravr-go/param"
)

// BaseListeningModes maps listening mode wire IDs to display names. Models
// extend or restrict this set via the listening mode parameters.
var BaseListeningModes = map[string]string{
	"0001": "STEREO",
	"0003": "Front Stage Surround Advance",
	"0004": "Front Stage Surround Advance Wide",
	"0005": "AUTO SURR/STREAM DIRECT",
	"0006": "AUTO SURROUND",
	"0007": "DIRECT",
	"0008": "PURE DIRECT",
	"0009": "STEREO (direct)",
	"0010": "STANDARD",
	"0011": "2ch",
	"0012": "PRO LOGIC",
	"0013": "PRO LOGIC2 MOVIE",
	"0014": "PRO LOGIC2 MUSIC",
	"0015": "PRO LOGIC2 GAME",
	"0016": "Neo:6 CINEMA",
	"0017": "Neo:6 MUSIC",
	"0018": "PRO LOGIC2x MOVIE",
	"0019": "PRO LOGIC2x MUSIC",
	"0020": "PRO LOGIC2x GAME",
	"0021": "Multi ch",
	"0022": "Multi ch+DOLBY EX",
	"0023": "Multi ch+PRO LOGIC2x MOVIE",
	"0024": "Multi ch+PRO LOGIC2x MUSIC",
	"0025": "Multi ch+DTS-ES Neo",
	"0026": "Multi ch+DTS-ES matrix",
	"0027": "Multi ch+DTS-ES discrete",
	"0028": "XM HD SURROUND",
	"0029": "NEURAL SURROUND",
	"0030": "Multi ch+DTS-ES 8ch discrete",
	"0031": "PRO LOGIC2z HEIGHT",
	"0032": "WIDE SURROUND MOVIE",
	"0033": "WIDE SURROUND MUSIC",
	"0034": "Multi ch+PRO LOGIC2z HEIGHT",
	"0035": "Multi ch+WIDE SURROUND MOVIE",
	"0036": "Multi ch+WIDE SURROUND MUSIC",
	"0037": "Neo:X CINEMA",
	"0038": "Neo:X MUSIC",
	"0039": "Neo:X GAME",
	"0040": "NEURAL SURROUND+Neo:X CINEMA",
	"0041": "NEURAL SURROUND+Neo:X MUSIC",
	"0042": "NEURAL SURROUND+Neo:X GAME",
	"0043": "Multi ch+Neo:X CINEMA",
	"0044": "Multi ch+Neo:X MUSIC",
	"0045": "Multi ch+Neo:X GAME",
	"0051": "PROLOGIC + THX CINEMA",
	"0052": "PL2 MOVIE + THX CINEMA",
	"0053": "Neo:6 CINEMA + THX CINEMA",
	"0054": "PL2x MOVIE + THX CINEMA",
	"0055": "THX SELECT2 GAMES",
	"0056": "THX CINEMA (for multi ch)",
	"0057": "THX SURROUND EX (for multi ch)",
	"0058": "PL2x MOVIE + THX CINEMA (for multi ch)",
	"0059": "ES Neo:6 + THX CINEMA (for multi ch)",
	"0060": "ES MATRIX + THX CINEMA (for multi ch)",
	"0061": "ES DISCRETE + THX CINEMA (for multi ch)",
	"0062": "THX SELECT2 CINEMA (for multi ch)",
	"0063": "THX SELECT2 MUSIC (for multi ch)",
	"0064": "THX SELECT2 GAMES (for multi ch)",
	"0065": "THX ULTRA2 CINEMA (for multi ch)",
	"0066": "THX ULTRA2 MUSIC (for multi ch)",
	"0067": "ES 8ch DISCRETE + THX CINEMA (for multi ch)",
	"0068": "THX CINEMA (for 2ch)",
	"0069": "THX MUSIC (for 2ch)",
	"0070": "THX GAMES (for 2ch)",
	"0071": "PL2 MUSIC + THX MUSIC",
	"0072": "PL2x MUSIC + THX MUSIC",
	"0073": "Neo:6 MUSIC + THX MUSIC",
	"0074": "PL2 GAME + THX GAMES",
	"0075": "PL2x GAME + THX GAMES",
	"0076": "THX ULTRA2 GAMES",
	"0077": "PROLOGIC + THX MUSIC",
	"0078": "PROLOGIC + THX GAMES",
	"0079": "THX ULTRA2 GAMES (for multi ch)",
	"0080": "THX MUSIC (for multi ch)",
	"0081": "THX GAMES (for multi ch)",
	"0082": "PL2x MUSIC + THX MUSIC (for multi ch)",
	"0083": "EX + THX GAMES (for multi ch)",
	"0084": "Neo:6 + THX MUSIC (for multi ch)",
	"0085": "Neo:6 + THX GAMES (for multi ch)",
	"0086": "ES MATRIX + THX MUSIC (for multi ch)",
	"0087": "ES MATRIX + THX GAMES (for multi ch)",
	"0088": "ES DISCRETE + THX MUSIC (for multi ch)",
	"0089": "ES DISCRETE + THX GAMES (for multi ch)",
	"0090": "ES 8CH DISCRETE + THX MUSIC (for multi ch)",
	"0091": "ES 8CH DISCRETE + THX GAMES (for multi ch)",
	"0092": "PL2z HEIGHT + THX CINEMA",
	"0093": "PL2z HEIGHT + THX MUSIC",
	"0094": "PL2z HEIGHT + THX GAMES",
	"0095": "PL2z HEIGHT + THX CINEMA (for multi ch)",
	"0096": "PL2z HEIGHT + THX MUSIC (for multi ch)",
	"0097": "PL2z HEIGHT + THX GAMES (for multi ch)",
	"0101": "ACTION",
	"0102": "SCI-FI",
	"0103": "DRAMA",
	"0104": "ENTERTAINMENT SHOW",
	"0105": "MONO FILM",
	"0106": "EXPANDED THEATER",
	"0107": "CLASSICAL",
	"0109": "UNPLUGGED",
	"0110": "ROCK/POP",
	"0112": "EXTENDED STEREO",
	"0113": "PHONES SURROUND",
	"0116": "TV SURROUND",
	"0117": "SPORTS",
	"0118": "ADVANCED GAME",
	"0151": "Auto Level Control",
	"0152": "OPTIMUM SURROUND",
	"0153": "RETRIEVER AIR",
	"0200": "ECO MODE",
	"0201": "Neo:X CINEMA + THX CINEMA",
	"0202": "Neo:X MUSIC + THX MUSIC",
	"0203": "Neo:X GAME + THX GAMES",
	"0204": "Neo:X CINEMA + THX CINEMA (for multi ch)",
	"0205": "Neo:X MUSIC + THX MUSIC (for multi ch)",
	"0206": "Neo:X GAME + THX GAMES (for multi ch)",
	"0212": "ECO MODE 1",
	"0213": "ECO MODE 2",
}

// UpdateListeningModes recomputes the available listening mode table from the
// base table and the listening mode parameters: extra modes are merged in,
// disabled modes removed, and when an enabled list is present only those IDs
// remain. Duplicate display names are dropped.
func (p *Properties) UpdateListeningModes() {
	extra := p.params.StringMap(param.ExtraListeningModes)
	enabled := p.params.Strings(param.EnabledListeningModes)
	disabled := p.params.Strings(param.DisabledListeningModes)

	all := make(map[string]string, len(BaseListeningModes)+len(extra))
	for id, name := range BaseListeningModes {
		all[id] = name
	}
	for id, name := range extra {
		all[id] = name
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	available := map[string]string{}
	seenNames := map[string]bool{}
	for _, id := range ids {
		name := all[id]
		if contains(disabled, id) {
			continue
		}
		if len(enabled) > 0 && !contains(enabled, id) {
			continue
		}
		if seenNames[name] {
			p.log.Error("ignoring duplicate listening mode name", "name", name)
			continue
		}
		seenNames[name] = true
		available[id] = name
	}

	p.mu.Lock()
	p.allListeningModes = all
	p.availableListeningModes = available
	p.mu.Unlock()
}

// ListeningModes returns the selectable listening modes (id -> name).
func (p *Properties) ListeningModes() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.availableListeningModes))
	for id, name := range p.availableListeningModes {
		out[id] = name
	}
	return out
}

// ListeningModeIDByName resolves a display name to its mode ID.
func (p *Properties) ListeningModeIDByName(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, n := range p.availableListeningModes {
		if n == name {
			return id, true
		}
	}
	return "", false
}
