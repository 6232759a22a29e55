package properties

import (
	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// DefaultSourceNames are the factory names used when the AVR does not return
// a name for a source ID.
var DefaultSourceNames = map[string]string{
	"25": "BD",
	"04": "DVD",
	"06": "SAT/CBL",
	"10": "VIDEO",
	"15": "DVR/BDR",
	"19": "HDMI1",
	"20": "HDMI2",
	"21": "HDMI3",
	"22": "HDMI4",
	"23": "HDMI5",
	"24": "HDMI6",
	"34": "HDMI7",
	"49": "GAME",
	"26": "NETWORK",
	"38": "INTERNET RADIO",
	"53": "Spotify",
	"41": "PANDORA",
	"44": "MEDIA SERVER",
	"45": "FAVORITES",
	"17": "iPod/USB",
	"05": "TV",
	"01": "CD",
	"13": "USB-DAC",
	"02": "TUNER",
	"00": "PHONO",
	"12": "MULTI CH IN",
	"33": "BT AUDIO",
	"31": "HDMI-cyclic",
	"46": "AirPlay",
	"47": "DMR",
}

// SourceTuner is the source ID of the built-in tuner.
const SourceTuner = "02"

// SetSourceDict replaces the source dictionary (id -> name). Names are
// trimmed of trailing spaces. Resolved source names for all zones are
// refreshed.
func (p *Properties) SetSourceDict(sources map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceDict = make(map[string]string, len(sources))
	for id, name := range sources {
		p.sourceDict[id] = trimSourceName(name)
	}
	p.refreshSourceNamesLocked()
}

// SaveSource stores or renames one source dictionary entry.
func (p *Properties) SaveSource(id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceDict[id] = trimSourceName(name)
	p.refreshSourceNamesLocked()
}

// ClearSource removes the name mapping for a source ID.
func (p *Properties) ClearSource(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sourceDict, id)
	p.refreshSourceNamesLocked()
}

func (p *Properties) refreshSourceNamesLocked() {
	for z, id := range p.sourceID {
		p.sourceName[z] = p.sourceNameLocked(id)
	}
}

func (p *Properties) sourceNameLocked(id string) string {
	if name, ok := p.sourceDict[id]; ok {
		return name
	}
	if name, ok := DefaultSourceNames[id]; ok {
		return name
	}
	return id
}

// SourceNameByID resolves a source ID to its display name, falling back to
// the factory default table and finally the ID itself.
func (p *Properties) SourceNameByID(id string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceNameLocked(id)
}

// SourceIDByName resolves a display name to a source ID. Duplicate names in
// the dictionary cannot be resolved and return a Validation error; the
// caller must disambiguate by ID.
func (p *Properties) SourceIDByName(name string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var found []string
	for id, n := range p.sourceDict {
		if n == name {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", avrerr.NewValidation("unknown source %q", name)
	default:
		return "", avrerr.NewValidation("source name %q is ambiguous", name)
	}
}

// GetSourceDict returns the source dictionary, filtered to the zone's valid
// sources when a real zone is given. Pass zone.All for the full table.
func (p *Properties) GetSourceDict(z zone.Zone) map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var valid []string
	if z != zone.All {
		valid = p.params.Strings(param.ZoneSources[z])
	}
	out := map[string]string{}
	for id, name := range p.sourceDict {
		if len(valid) == 0 || contains(valid, id) {
			out[id] = name
		}
	}
	return out
}

// GetSourceList returns the display names selectable for a zone.
func (p *Properties) GetSourceList(z zone.Zone) []string {
	dict := p.GetSourceDict(z)
	names := make([]string, 0, len(dict))
	for _, name := range dict {
		names = append(names, name)
	}
	return names
}

// SourceCount returns the number of known sources.
func (p *Properties) SourceCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sourceDict)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
