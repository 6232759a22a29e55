package connection

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/crowbarz/pioneeravr-go/avrerr"
)

var avrErrorRE = regexp.MustCompile(`^E0[1-6]$`)

type result struct {
	text string
	err  error
}

// Waiter is a single-shot slot fulfilled with the response matching its
// prefix, an AVR error, a timeout or a disconnection.
type Waiter struct {
	prefix string
	op     string
	ch     chan result
	resp   *Responder
}

// Prefix returns the response prefix this waiter matches.
func (w *Waiter) Prefix() string { return w.prefix }

// Wait blocks until the waiter is fulfilled or the timeout elapses. The
// returned string is the frame suffix after the matched prefix.
func (w *Waiter) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-w.ch:
		return res.text, res.err
	case <-timer.C:
		w.resp.remove(w)
		// Drain a fulfilment that raced the timer.
		select {
		case res := <-w.ch:
			return res.text, res.err
		default:
		}
		return "", avrerr.NewResponseTimeout(w.op)
	case <-ctx.Done():
		w.resp.remove(w)
		return "", avrerr.NewCancelled(w.op)
	}
}

// Cancel removes the waiter without fulfilling it.
func (w *Waiter) Cancel() { w.resp.remove(w) }

// Responder correlates inbound frames with pending waiters. The AVR does not
// echo request identifiers, so the response prefix is the only correlation
// signal; the command executor guarantees at most one outstanding waiter per
// prefix.
type Responder struct {
	mu      sync.Mutex
	waiters []*Waiter
	log     *slog.Logger
}

// NewResponder creates an empty correlator.
func NewResponder(log *slog.Logger) *Responder {
	if log == nil {
		log = slog.Default()
	}
	return &Responder{log: log}
}

// Register adds a waiter for the given response prefix. op names the command
// for error reporting.
func (r *Responder) Register(prefix, op string) *Waiter {
	w := &Waiter{prefix: prefix, op: op, ch: make(chan result, 1), resp: r}
	r.mu.Lock()
	r.waiters = append(r.waiters, w)
	r.mu.Unlock()
	return w
}

func (r *Responder) remove(w *Waiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cand := range r.waiters {
		if cand == w {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

// Offer classifies an inbound frame. An AVR error token fulfills the oldest
// waiter as an error; otherwise the first waiter whose prefix matches is
// fulfilled with the frame suffix. Returns true when a waiter consumed the
// frame.
func (r *Responder) Offer(frame string) bool {
	r.mu.Lock()

	if avrErrorRE.MatchString(frame) {
		for i, w := range r.waiters {
			if w.prefix == "" {
				continue
			}
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			r.mu.Unlock()
			w.ch <- result{err: avrerr.NewAvrError(w.op, frame)}
			return true
		}
		r.mu.Unlock()
		r.log.Debug("unmatched AVR error", "code", frame)
		return false
	}

	for i, w := range r.waiters {
		if w.prefix == "" || !strings.HasPrefix(frame, w.prefix) {
			continue
		}
		r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
		r.mu.Unlock()
		w.ch <- result{text: strings.TrimPrefix(frame, w.prefix)}
		return true
	}
	r.mu.Unlock()
	return false
}

// FailAll fulfills every outstanding waiter with err. Used on disconnection
// and cancellation.
func (r *Responder) FailAll(err error) {
	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()
	for _, w := range waiters {
		w.ch <- result{err: err}
	}
}

// Pending returns the number of outstanding waiters.
func (r *Responder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
