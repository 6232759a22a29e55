package param

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

type profileEntry struct {
	Model  string         `yaml:"model"`
	Params map[string]any `yaml:"params"`
}

type profileTable struct {
	Profiles []profileEntry `yaml:"profiles"`
}

var modelProfiles []profileEntry

func init() {
	var table profileTable
	if err := yaml.Unmarshal(profilesYAML, &table); err != nil {
		panic(fmt.Sprintf("param: invalid embedded profile table: %v", err))
	}
	modelProfiles = table.Profiles
}

// profileFor resolves the parameter profile for a model string. Exact match
// first, then longest matching prefix; nil when nothing matches.
func profileFor(model string) map[Key]any {
	if model == "" || model == "unknown" {
		return nil
	}
	var best *profileEntry
	for i := range modelProfiles {
		e := &modelProfiles[i]
		if e.Model == model {
			best = e
			break
		}
		if strings.HasPrefix(model, e.Model) {
			if best == nil || len(e.Model) > len(best.Model) {
				best = e
			}
		}
	}
	if best == nil {
		return nil
	}
	profile := make(map[Key]any, len(best.Params))
	for k, v := range best.Params {
		profile[Key(k)] = v
	}
	return profile
}
