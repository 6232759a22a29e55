package pioneeravr

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/param"
	"github.com/crowbarz/pioneeravr-go/zone"
)

const maxTunerSteps = 100

// SelectTunerBand switches the tuner between AM and FM.
func (a *PioneerAVR) SelectTunerBand(ctx context.Context, band zone.TunerBand) error {
	if err := a.checkAvailable("select_tuner_band", false); err != nil {
		return err
	}
	if !a.tunerActive() {
		return avrerr.NewValidation("tuner is unavailable")
	}
	if current, ok := a.props.TunerBand(); ok && current == band.String() {
		return nil
	}
	name := "set_tuner_band_fm"
	if band == zone.BandAM {
		name = "set_tuner_band_am"
	}
	_, err := a.sendCommand(ctx, Command{Name: name, Zone: zone.Main})
	return err
}

// SetTunerFrequency tunes to the given frequency (MHz for FM, kHz for AM).
// Direct frequency entry is used when the model supports it; otherwise the
// frequency is stepped up or down until the target is reached, bounded by a
// watchdog step count.
func (a *PioneerAVR) SetTunerFrequency(ctx context.Context, band zone.TunerBand, frequency float64) error {
	if err := a.checkAvailable("set_tuner_frequency", false); err != nil {
		return err
	}
	if band == zone.BandAM && (frequency < 530 || frequency > 1700) {
		return avrerr.NewValidation("frequency %g out of range for AM", frequency)
	}
	if band == zone.BandFM && (frequency < 87.5 || frequency > 108.0) {
		return avrerr.NewValidation("frequency %g out of range for FM", frequency)
	}

	if err := a.SelectTunerBand(ctx, band); err != nil {
		return err
	}
	// A band change may have scheduled the AM step calculation; let the
	// queue drain before stepping.
	if err := a.Wait(ctx); err != nil {
		return err
	}

	if ok, _ := a.trySendDirect(ctx); ok {
		return a.enterTunerFrequency(ctx, band, frequency)
	}
	return a.stepTunerFrequency(ctx, band, frequency)
}

func (a *PioneerAVR) trySendDirect(ctx context.Context) (bool, bool) {
	if !a.registry.HasCommand("operation_direct_access", zone.Main) {
		return false, false
	}
	ok, timedOut := false, false
	_, err := a.sendCommand(ctx, Command{Name: "operation_direct_access", Zone: zone.Main})
	if err == nil {
		ok = true
	} else if avrerr.KindOf(err) == avrerr.ResponseTimeout {
		timedOut = true
	}
	return ok, timedOut
}

// enterTunerFrequency keys the frequency in digit by digit.
func (a *PioneerAVR) enterTunerFrequency(ctx context.Context, band zone.TunerBand, frequency float64) error {
	scale := 1.0
	if band == zone.BandFM {
		scale = 100
	}
	for _, digit := range fmt.Sprintf("%d", int(frequency*scale)) {
		_, err := a.sendCommand(ctx, Command{
			Name: "operation_tuner_digit", Zone: zone.Main, Prefix: string(digit),
		})
		if err != nil {
			return fmt.Errorf("AVR rejected frequency %g: %w", frequency, err)
		}
	}
	return nil
}

// stepTunerFrequency steps the tuner up or down until the target frequency
// is reached.
func (a *PioneerAVR) stepTunerFrequency(ctx context.Context, band zone.TunerBand, frequency float64) error {
	current, ok := a.props.TunerFrequency()
	if !ok {
		return avrerr.NewValidation("tuner frequency is not known yet")
	}

	var target float64
	if band == zone.BandAM {
		step := a.params.Float(param.TunerAMFrequencyStep)
		if step <= 0 {
			return avrerr.NewValidation("unknown AM frequency step, set the am_frequency_step parameter")
		}
		target = math.Floor(frequency/step) * step
	} else {
		target = 0.05 * math.Round(frequency/0.05)
	}

	const eps = 1e-3
	count := maxTunerSteps
	for target > current+eps && count > 0 {
		if _, err := a.sendCommand(ctx, Command{Name: "increase_tuner_frequency", Zone: zone.Main}); err != nil {
			if avrerr.KindOf(err) != avrerr.ResponseTimeout {
				return err
			}
		}
		current, _ = a.props.TunerFrequency()
		count--
	}
	for target < current-eps && count > 0 {
		if _, err := a.sendCommand(ctx, Command{Name: "decrease_tuner_frequency", Zone: zone.Main}); err != nil {
			if avrerr.KindOf(err) != avrerr.ResponseTimeout {
				return err
			}
		}
		current, _ = a.props.TunerFrequency()
		count--
	}
	if count == 0 {
		return avrerr.NewValidation("maximum frequency step count exceeded")
	}
	return nil
}

// SelectTunerPreset selects a stored tuner preset by class (A-G) and number.
func (a *PioneerAVR) SelectTunerPreset(ctx context.Context, class string, preset int) error {
	if err := a.checkAvailable("select_tuner_preset", false); err != nil {
		return err
	}
	prefix := strings.ToUpper(class) + fmt.Sprintf("%02d", preset)
	_, err := a.sendCommand(ctx, Command{Name: "select_tuner_preset", Zone: zone.Main, Prefix: prefix})
	return err
}

// TunerNextPreset selects the next tuner preset.
func (a *PioneerAVR) TunerNextPreset(ctx context.Context) error {
	if err := a.checkAvailable("tuner_next_preset", false); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{Name: "increase_tuner_preset", Zone: zone.Main})
	return err
}

// TunerPreviousPreset selects the previous tuner preset.
func (a *PioneerAVR) TunerPreviousPreset(ctx context.Context) error {
	if err := a.checkAvailable("tuner_previous_preset", false); err != nil {
		return err
	}
	_, err := a.sendCommand(ctx, Command{Name: "decrease_tuner_preset", Zone: zone.Main})
	return err
}
