// Package commandset maps command mnemonics to wire tokens and response
// prefixes to decoders. Both tables are read-only after construction.
package commandset

import (
	"log/slog"
	"strings"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/properties"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// Wire is the per-zone encoding of a command: the wire token and the response
// prefix the AVR acknowledges with. Commands with an empty Response are
// fire-and-forget.
type Wire struct {
	Token    string
	Response string
}

// Decoder parses the rest of a response line (after the matched prefix),
// updates the property cache, and returns the zones whose observable state
// was touched.
type Decoder func(rest string, props *properties.Properties, params *param.Params) []zone.Zone

type decoderEntry struct {
	prefix string
	fn     Decoder
}

// Registry holds the command table and the decoder table.
type Registry struct {
	log      *slog.Logger
	commands map[string]map[zone.Zone]Wire
	decoders []decoderEntry
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:      log,
		commands: map[string]map[zone.Zone]Wire{},
	}
}

// Default returns a registry populated with the built-in Pioneer command
// table and the basic response decoders.
func Default(log *slog.Logger) *Registry {
	r := NewRegistry(log)
	registerCommands(r)
	registerBasicDecoders(r)
	return r
}

// RegisterCommand adds a command mnemonic with its per-zone wire encodings.
func (r *Registry) RegisterCommand(name string, zones map[zone.Zone]Wire) {
	r.commands[name] = zones
}

// RegisterDecoder adds a decoder for a response prefix. The longest matching
// prefix wins; ties break by registration order.
func (r *Registry) RegisterDecoder(prefix string, fn Decoder) {
	r.decoders = append(r.decoders, decoderEntry{prefix: prefix, fn: fn})
}

// Command resolves a mnemonic for a zone. Commands registered for zone.All
// are valid for any zone argument.
func (r *Registry) Command(name string, z zone.Zone) (Wire, error) {
	zones, ok := r.commands[name]
	if !ok {
		return Wire{}, avrerr.NewValidation("unknown command %q", name)
	}
	if w, ok := zones[z]; ok {
		return w, nil
	}
	if w, ok := zones[zone.All]; ok {
		return w, nil
	}
	return Wire{}, avrerr.NewValidation("command %q not supported for %s", name, z.String())
}

// HasCommand reports whether a mnemonic is supported for a zone.
func (r *Registry) HasCommand(name string, z zone.Zone) bool {
	_, err := r.Command(name, z)
	return err == nil
}

// CommandNames returns all mnemonics with the given prefix.
func (r *Registry) CommandNames(prefix string) []string {
	var names []string
	for name := range r.commands {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

// CommandZones returns the zones a mnemonic is registered for.
func (r *Registry) CommandZones(name string) []zone.Zone {
	var zones []zone.Zone
	for z := range r.commands[name] {
		zones = append(zones, z)
	}
	return zones
}

// Decode submits a response frame to the decoder table and returns the zones
// touched. Frames with no matching decoder return nil. Decoder panics are
// logged and discarded; they never propagate to the reader.
func (r *Registry) Decode(frame string, props *properties.Properties, params *param.Params) (zones []zone.Zone) {
	var best *decoderEntry
	for i := range r.decoders {
		e := &r.decoders[i]
		if !strings.HasPrefix(frame, e.prefix) {
			continue
		}
		if best == nil || len(e.prefix) > len(best.prefix) {
			best = e
		}
	}
	if best == nil {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("response decoder panicked", "frame", frame, "panic", rec)
			zones = nil
		}
	}()
	return best.fn(strings.TrimPrefix(frame, best.prefix), props, params)
}
