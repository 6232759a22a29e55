// Package properties holds the cached view of AVR state, indexed by zone and
// topic, and fans out change notifications to per-zone observers.
package properties

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// Topic names a keyed property group on the AVR.
type Topic string

const (
	TopicAmp          Topic = "amp"
	TopicDSP          Topic = "dsp"
	TopicVideo        Topic = "video"
	TopicAudio        Topic = "audio"
	TopicSystem       Topic = "system"
	TopicTuner        Topic = "tuner"
	TopicChannelLevel Topic = "channel_level"
)

type observer struct {
	zone zone.Zone
	fn   func(zone.Zone)
}

// Properties is the in-memory AVR state cache. Writes are serialized through
// the internal mutex; observers are notified synchronously from the decode
// stage and must not block.
type Properties struct {
	mu     sync.RWMutex
	params *param.Params
	log    *slog.Logger

	model           string
	softwareVersion string
	macAddr         string
	listeningModeID string
	listeningMode   string

	zones            map[zone.Zone]bool
	power            map[zone.Zone]bool
	mute             map[zone.Zone]bool
	volume           map[zone.Zone]int
	maxVolume        map[zone.Zone]int
	sourceID         map[zone.Zone]string
	sourceName       map[zone.Zone]string
	mediaControlMode map[zone.Zone]string
	tone             map[zone.Zone]map[string]any
	channelLevels    map[zone.Zone]map[string]float64

	topics map[Topic]map[string]any

	sourceDict map[string]string // source id -> display name

	allListeningModes       map[string]string
	availableListeningModes map[string]string

	observers map[string]observer
}

// New creates an empty property cache bound to a parameter store.
func New(params *param.Params, log *slog.Logger) *Properties {
	if log == nil {
		log = slog.Default()
	}
	p := &Properties{
		params:           params,
		log:              log,
		zones:            map[zone.Zone]bool{},
		power:            map[zone.Zone]bool{},
		mute:             map[zone.Zone]bool{},
		volume:           map[zone.Zone]int{},
		maxVolume:        map[zone.Zone]int{},
		sourceID:         map[zone.Zone]string{},
		sourceName:       map[zone.Zone]string{},
		mediaControlMode: map[zone.Zone]string{},
		tone:             map[zone.Zone]map[string]any{},
		channelLevels:    map[zone.Zone]map[string]float64{},
		topics: map[Topic]map[string]any{
			TopicAmp: {}, TopicDSP: {}, TopicVideo: {}, TopicAudio: {},
			TopicSystem: {}, TopicTuner: {},
		},
		sourceDict: map[string]string{},
		observers:  map[string]observer{},
	}
	p.UpdateListeningModes()
	return p
}

// Zone membership

// AddZone records a detected zone. Returns true if the zone was new.
func (p *Properties) AddZone(z zone.Zone) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.zones[z] {
		return false
	}
	p.zones[z] = true
	p.log.Info("zone discovered", "zone", z.String())
	return true
}

// RemoveZone drops a zone from the detected set.
func (p *Properties) RemoveZone(z zone.Zone) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.zones[z] {
		return false
	}
	delete(p.zones, z)
	return true
}

// Zones returns the detected zones in wire order.
func (p *Properties) Zones() []zone.Zone {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var zones []zone.Zone
	for _, z := range zone.RealZones() {
		if p.zones[z] {
			zones = append(zones, z)
		}
	}
	return zones
}

// HasZone reports whether z has been detected.
func (p *Properties) HasZone(z zone.Zone) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.zones[z]
}

// Per-zone scalars. Setters return true when the cached value changed.

func (p *Properties) SetPower(z zone.Zone, on bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.power[z]; ok && cur == on {
		return false
	}
	p.power[z] = on
	p.log.Info("power updated", "zone", z.String(), "on", on)
	return true
}

func (p *Properties) Power(z zone.Zone) (bool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.power[z]
	return v, ok
}

// AnyPowerOn reports whether any detected zone is powered on.
func (p *Properties) AnyPowerOn() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, on := range p.power {
		if on {
			return true
		}
	}
	return false
}

func (p *Properties) SetVolume(z zone.Zone, v int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.volume[z]; ok && cur == v {
		return false
	}
	p.volume[z] = v
	p.log.Info("volume updated", "zone", z.String(), "volume", v)
	return true
}

func (p *Properties) Volume(z zone.Zone) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.volume[z]
	return v, ok
}

func (p *Properties) SetMaxVolume(z zone.Zone, v int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.maxVolume[z]; ok && cur == v {
		return false
	}
	p.maxVolume[z] = v
	return true
}

func (p *Properties) MaxVolume(z zone.Zone) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.maxVolume[z]
	return v, ok
}

func (p *Properties) SetMute(z zone.Zone, muted bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.mute[z]; ok && cur == muted {
		return false
	}
	p.mute[z] = muted
	p.log.Info("mute updated", "zone", z.String(), "muted", muted)
	return true
}

func (p *Properties) Mute(z zone.Zone) (bool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.mute[z]
	return v, ok
}

// SetSourceID records the selected source for a zone and refreshes the
// resolved source name from the source dictionary.
func (p *Properties) SetSourceID(z zone.Zone, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := p.sourceNameLocked(id)
	if cur, ok := p.sourceID[z]; ok && cur == id && p.sourceName[z] == name {
		return false
	}
	p.sourceID[z] = id
	p.sourceName[z] = name
	p.log.Info("source updated", "zone", z.String(), "id", id, "name", name)
	return true
}

func (p *Properties) SourceID(z zone.Zone) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.sourceID[z]
	return v, ok
}

func (p *Properties) SourceName(z zone.Zone) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.sourceName[z]
	return v, ok
}

func (p *Properties) SetMediaControlMode(z zone.Zone, mode string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.mediaControlMode[z]; ok && cur == mode {
		return false
	}
	p.mediaControlMode[z] = mode
	return true
}

func (p *Properties) MediaControlMode(z zone.Zone) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.mediaControlMode[z]
	return v, ok
}

// Tone settings per zone.

func (p *Properties) SetTone(z zone.Zone, key string, value any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.tone[z]
	if t == nil {
		t = map[string]any{}
		p.tone[z] = t
	}
	if cur, ok := t[key]; ok && cur == value {
		return false
	}
	t[key] = value
	p.log.Info("tone updated", "zone", z.String(), "key", key, "value", value)
	return true
}

func (p *Properties) Tone(z zone.Zone) map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t := p.tone[z]
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Channel levels per zone.

func (p *Properties) SetChannelLevel(z zone.Zone, channel string, level float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	levels := p.channelLevels[z]
	if levels == nil {
		levels = map[string]float64{}
		p.channelLevels[z] = levels
	}
	if cur, ok := levels[channel]; ok && cur == level {
		return false
	}
	levels[channel] = level
	return true
}

func (p *Properties) ChannelLevels(z zone.Zone) map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	levels := p.channelLevels[z]
	if levels == nil {
		return nil
	}
	out := make(map[string]float64, len(levels))
	for k, v := range levels {
		out[k] = v
	}
	return out
}

// Keyed topics (amp, dsp, video, audio, system, tuner).

func (p *Properties) SetTopic(t Topic, key string, value any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.topics[t]
	if m == nil {
		m = map[string]any{}
		p.topics[t] = m
	}
	if cur, ok := m[key]; ok && cur == value {
		return false
	}
	m[key] = value
	p.log.Info("property updated", "topic", string(t), "key", key, "value", value)
	return true
}

func (p *Properties) Topic(t Topic) map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m := p.topics[t]
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (p *Properties) TopicValue(t Topic, key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.topics[t][key]
	return v, ok
}

// Tuner convenience accessors.

func (p *Properties) TunerBand() (string, bool) {
	v, ok := p.TopicValue(TopicTuner, "band")
	s, sok := v.(string)
	return s, ok && sok
}

func (p *Properties) TunerFrequency() (float64, bool) {
	v, ok := p.TopicValue(TopicTuner, "frequency")
	f, fok := v.(float64)
	return f, ok && fok
}

// Global identity properties.

func (p *Properties) SetModel(model string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == model {
		return false
	}
	p.model = model
	p.log.Info("model detected", "model", model)
	return true
}

func (p *Properties) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

func (p *Properties) SetSoftwareVersion(v string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.softwareVersion == v {
		return false
	}
	p.softwareVersion = v
	return true
}

func (p *Properties) SoftwareVersion() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.softwareVersion
}

func (p *Properties) SetMACAddr(mac string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.macAddr == mac {
		return false
	}
	p.macAddr = mac
	return true
}

func (p *Properties) MACAddr() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.macAddr
}

// SetListeningMode records the active listening mode by wire ID, resolving
// the display name from the full mode table (including disabled modes).
func (p *Properties) SetListeningMode(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := p.allListeningModes[id]
	if p.listeningModeID == id && p.listeningMode == name {
		return false
	}
	p.listeningModeID = id
	p.listeningMode = name
	p.log.Info("listening mode updated", "id", id, "name", name)
	return true
}

// ListeningMode returns the active listening mode display name and wire ID.
func (p *Properties) ListeningMode() (name, id string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.listeningMode, p.listeningModeID
}

// Observers

// RegisterZoneObserver registers a callback fired when observable state for
// the given zone changes. Register for zone.All to observe every zone. The
// returned handle unregisters via UnregisterObserver.
func (p *Properties) RegisterZoneObserver(z zone.Zone, fn func(zone.Zone)) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := uuid.NewString()
	p.observers[id] = observer{zone: z, fn: fn}
	return id
}

// UnregisterObserver removes a previously registered observer.
func (p *Properties) UnregisterObserver(handle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.observers, handle)
}

// ClearObservers removes all observers.
func (p *Properties) ClearObservers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = map[string]observer{}
}

// NotifyZones fires observer callbacks for the given zones, coalescing
// duplicates. Observer panics are logged and discarded so they cannot
// propagate into the decode path.
func (p *Properties) NotifyZones(zones []zone.Zone) {
	if len(zones) == 0 {
		return
	}
	seen := map[zone.Zone]bool{}
	var unique []zone.Zone
	for _, z := range zones {
		if !seen[z] {
			seen[z] = true
			unique = append(unique, z)
		}
	}

	p.mu.RLock()
	obs := make([]observer, 0, len(p.observers))
	for _, o := range p.observers {
		obs = append(obs, o)
	}
	p.mu.RUnlock()

	for _, z := range unique {
		for _, o := range obs {
			if o.zone == z || o.zone == zone.All {
				p.callObserver(o, z)
			}
		}
	}
}

func (p *Properties) callObserver(o observer, z zone.Zone) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("zone observer panicked", "zone", z.String(), "panic", r)
		}
	}()
	o.fn(z)
}

// Validation helper shared by the facade.

// CheckZone returns a Validation error when z is not a detected zone.
func (p *Properties) CheckZone(z zone.Zone) error {
	if !p.HasZone(z) {
		return avrerr.NewValidation("zone %s does not exist on AVR", z.String())
	}
	return nil
}

func trimSourceName(name string) string {
	return strings.TrimRight(name, " ")
}
