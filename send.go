package pioneeravr

import (
	"context"
	"errors"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/queue"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// Command describes a generic command submission for SendCommand.
type Command struct {
	Name   string
	Zone   zone.Zone
	Prefix string
	Suffix string

	// IgnoreError demotes AVR errors and timeouts to an empty result.
	IgnoreError bool

	// NoRateLimit disables command pacing for this command.
	NoRateLimit bool
}

// SendCommand submits a command by mnemonic and returns the response suffix,
// or an empty string for fire-and-forget commands.
func (a *PioneerAVR) SendCommand(ctx context.Context, cmd Command) (string, error) {
	if err := a.checkAvailable(cmd.Name, false); err != nil {
		return "", err
	}
	result, err := a.sendCommand(ctx, cmd)
	if err != nil && cmd.IgnoreError {
		if errors.Is(err, avrerr.ErrAvrError) || errors.Is(err, avrerr.ErrResponseTimeout) {
			a.log.Debug("ignoring command error", "command", cmd.Name, "err", err)
			return "", nil
		}
	}
	return result, err
}

// sendCommand is the queued submission path for facade operations.
func (a *PioneerAVR) sendCommand(ctx context.Context, cmd Command) (string, error) {
	return a.submit(ctx, commandItem(cmd))
}

func commandItem(cmd Command) *queue.Item {
	item := queue.NewItem(cmd.Name, cmd.Zone, cmd.Prefix, cmd.Suffix)
	item.Zone = cmd.Zone
	item.HasZone = true
	item.Prefix = cmd.Prefix
	item.Suffix = cmd.Suffix
	item.RateLimit = !cmd.NoRateLimit
	return item
}

// trySendCommand sends a command inline, without queueing, ignoring AVR
// errors. Used by the executor's local command handlers and the
// startup/refresh paths; each call takes the single-outbound request lock
// itself, so callers must not hold it. The second return distinguishes a timeout, which during refresh
// indicates a dead session.
func (a *PioneerAVR) trySendCommand(ctx context.Context, cmd Command) (ok, timedOut bool) {
	_, err := a.request(ctx, commandItem(cmd))
	if err == nil {
		return true, false
	}
	return false, errors.Is(err, avrerr.ErrResponseTimeout)
}

// SendRawCommand sends a frame verbatim without awaiting a response.
func (a *PioneerAVR) SendRawCommand(ctx context.Context, raw string, rateLimit bool) error {
	if err := a.checkAvailable("send_raw_command", false); err != nil {
		return err
	}
	item := queue.NewItem("raw_command", raw)
	item.Raw = raw
	item.RateLimit = rateLimit
	_, err := a.submit(ctx, item)
	return err
}

// SendRawRequest sends a frame verbatim and awaits the response matching
// responsePrefix. Errors are always returned.
func (a *PioneerAVR) SendRawRequest(ctx context.Context, raw, responsePrefix string, rateLimit bool) (string, error) {
	if err := a.checkAvailable("send_raw_request", false); err != nil {
		return "", err
	}
	item := queue.NewItem("raw_request", raw, responsePrefix)
	item.Raw = raw
	item.ResponsePrefix = responsePrefix
	item.RateLimit = rateLimit
	return a.submit(ctx, item)
}
