// Package param implements the layered AVR parameter store. Effective values
// are composed from built-in defaults, the detected model profile, user
// overrides and runtime values, in that order.
package param

import (
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// ChangeFunc is called after the effective view is recomputed, with the keys
// whose effective value changed. Callbacks run synchronously and must not
// block.
type ChangeFunc func(changed []Key)

// Params is the layered parameter store. All methods are safe for concurrent
// use.
type Params struct {
	mu        sync.RWMutex
	log       *slog.Logger
	strict    bool
	defaults  map[Key]any
	profile   map[Key]any
	user      map[Key]any
	runtime   map[Key]any
	effective map[Key]any
	onChange  []ChangeFunc
}

// Option configures a Params store.
type Option func(*Params)

// WithLogger sets the logger used for parameter warnings.
func WithLogger(log *slog.Logger) Option {
	return func(p *Params) { p.log = log }
}

// WithStrict rejects unknown parameter keys instead of storing them.
func WithStrict() Option {
	return func(p *Params) { p.strict = true }
}

// New creates a parameter store populated with built-in defaults.
func New(opts ...Option) *Params {
	p := &Params{
		log:      slog.Default(),
		defaults: defaults(),
		profile:  map[Key]any{},
		user:     map[Key]any{},
		runtime:  map[Key]any{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.effective = p.compose()
	return p
}

// OnChange registers a callback fired after any layer mutation that changes
// effective values.
func (p *Params) OnChange(fn ChangeFunc) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

func (p *Params) compose() map[Key]any {
	eff := make(map[Key]any, len(p.defaults))
	for _, layer := range []map[Key]any{p.defaults, p.profile, p.user, p.runtime} {
		for k, v := range layer {
			eff[k] = v
		}
	}
	return eff
}

// recompute rebuilds the effective view and fires change callbacks for keys
// whose effective value changed. Called with p.mu held; callbacks run after
// the lock is released.
func (p *Params) recompute() {
	old := p.effective
	eff := p.compose()
	p.effective = eff

	var changed []Key
	for k, v := range eff {
		if ov, ok := old[k]; !ok || !reflect.DeepEqual(ov, v) {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := eff[k]; !ok {
			changed = append(changed, k)
		}
	}
	if len(changed) == 0 {
		return
	}
	fns := make([]ChangeFunc, len(p.onChange))
	copy(fns, p.onChange)

	p.mu.Unlock()
	defer p.mu.Lock()
	for _, fn := range fns {
		fn(changed)
	}
}

func (p *Params) checkKey(k Key) error {
	if Known(k) {
		return nil
	}
	if p.strict {
		return avrerr.NewValidation("unknown parameter %q", string(k))
	}
	p.log.Warn("unknown parameter", "key", string(k))
	return nil
}

// SetUserParams replaces the user parameter layer.
func (p *Params) SetUserParams(params map[Key]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := make(map[Key]any, len(params))
	for k, v := range params {
		if err := p.checkKey(k); err != nil {
			return err
		}
		user[k] = v
	}
	p.user = user
	p.recompute()
	return nil
}

// SetUserParam sets a single user parameter.
func (p *Params) SetUserParam(k Key, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkKey(k); err != nil {
		return err
	}
	p.user[k] = v
	p.recompute()
	return nil
}

// SetDefaultParamsModel selects the model profile layer for the given model
// string. An exact profile match wins, otherwise the profile with the longest
// matching prefix of the model string; with no match the layer is empty.
func (p *Params) SetDefaultParamsModel(model string) {
	profile := profileFor(model)
	p.mu.Lock()
	defer p.mu.Unlock()
	if profile != nil {
		p.log.Info("applying model profile", "model", model)
	}
	p.profile = profile
	if p.profile == nil {
		p.profile = map[Key]any{}
	}
	p.runtime[Model] = model
	p.recompute()
}

// SetRuntime sets a runtime-computed parameter value.
func (p *Params) SetRuntime(k Key, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runtime[k] = v
	p.recompute()
}

// ClearRuntime removes a runtime parameter value.
func (p *Params) ClearRuntime(k Key) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.runtime[k]; !ok {
		return
	}
	delete(p.runtime, k)
	p.recompute()
}

// Get returns the effective value of a parameter, or nil.
func (p *Params) Get(k Key) any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.effective[k]
}

// GetAll returns a copy of the effective parameter view.
func (p *Params) GetAll() map[Key]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	all := make(map[Key]any, len(p.effective))
	for k, v := range p.effective {
		all[k] = v
	}
	return all
}

// UserParams returns a copy of the user override layer.
func (p *Params) UserParams() map[Key]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	user := make(map[Key]any, len(p.user))
	for k, v := range p.user {
		user[k] = v
	}
	return user
}

// Typed accessors. Missing or mistyped values return the zero value.

func (p *Params) Bool(k Key) bool {
	v, _ := p.Get(k).(bool)
	return v
}

func (p *Params) Int(k Key) int {
	switch v := p.Get(k).(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (p *Params) Float(k Key) float64 {
	switch v := p.Get(k).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (p *Params) String(k Key) string {
	v, _ := p.Get(k).(string)
	return v
}

func (p *Params) Strings(k Key) []string {
	v, _ := p.Get(k).([]string)
	return v
}

func (p *Params) StringMap(k Key) map[string]string {
	v, _ := p.Get(k).(map[string]string)
	return v
}

func (p *Params) Zones(k Key) []zone.Zone {
	v, _ := p.Get(k).([]zone.Zone)
	return v
}

// Duration converts a float seconds parameter to a time.Duration.
func (p *Params) Duration(k Key) time.Duration {
	return time.Duration(p.Float(k) * float64(time.Second))
}
