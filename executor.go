package pioneeravr

import (
	"context"
	"strings"

	"github.com/crowbarz/pioneeravr-go/avrerr"
	"github.com/crowbarz/pioneeravr-go/connection"
	"github.com/crowbarz/pioneeravr-go/queue"
	"github.com/crowbarz/pioneeravr-go/zone"
)

// enqueue applies the skip rules against the current connection state and
// queue contents, then inserts the item and wakes the executor. A skipped
// item is completed immediately with a nil error.
func (a *PioneerAVR) enqueue(item *queue.Item) bool {
	if item.SkipIfStarting && a.conn.State() == connection.Starting {
		a.log.Debug("skipping command while starting", "command", item.String())
		item.Complete(nil)
		return false
	}
	if item.SkipIfRefreshing && item.HasZone && a.refreshPending(item.Zone) {
		a.log.Debug("skipping command, zone refresh pending", "command", item.String())
		item.Complete(nil)
		return false
	}
	if !a.queues.Enqueue(item) {
		a.log.Debug("command already queued, skipping", "command", item.String())
		item.Complete(nil)
		return false
	}
	if item.Name == localFullRefresh || item.Name == localRefreshZone {
		a.markRefreshPending(item)
	}
	a.Schedule()
	return true
}

// Schedule wakes the executor to drain the queues.
func (a *PioneerAVR) Schedule() {
	select {
	case a.execWake <- struct{}{}:
	default:
	}
}

// Cancel drops all queued commands and fails any in-flight waiter.
func (a *PioneerAVR) Cancel() {
	a.queues.Purge(avrerr.NewCancelled("cancel"))
	a.responder.FailAll(avrerr.NewCancelled("cancel"))
}

// QueuedCommands returns the names of all queued commands in execution
// order.
func (a *PioneerAVR) QueuedCommands() []string { return a.queues.Commands() }

// Wait blocks until every command queued ahead of it in the main queue has
// run, or ctx is done. Items in the delayed queue are not waited for.
func (a *PioneerAVR) Wait(ctx context.Context) error {
	item := queue.NewItem(localNoop)
	if !a.enqueue(item) {
		return nil
	}
	select {
	case err := <-item.Done():
		return err
	case <-ctx.Done():
		return avrerr.NewCancelled("wait")
	}
}

// executorLoop drains the command queues one item at a time, lowest queue ID
// first, FIFO within a queue. At most one outbound frame is in flight.
func (a *PioneerAVR) executorLoop(stop, done chan struct{}) {
	defer close(done)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	for {
		select {
		case <-stop:
			return
		case <-a.execWake:
		}
		for {
			item := a.queues.Pop()
			if item == nil {
				break
			}
			a.executeItem(ctx, item)
			select {
			case <-stop:
				return
			default:
			}
		}
	}
}

func (a *PioneerAVR) executeItem(ctx context.Context, item *queue.Item) {
	if strings.HasPrefix(item.Name, "_") {
		a.log.Debug("running local command", "command", item.String())
		item.Complete(a.runLocal(ctx, item))
		return
	}
	result, err := a.request(ctx, item)
	item.Result = result
	item.Complete(err)
}

// request resolves the item against the command table, writes the frame and
// awaits the prefix-correlated response. Fire-and-forget commands return
// after the write.
func (a *PioneerAVR) request(ctx context.Context, item *queue.Item) (string, error) {
	frame := item.Raw
	responsePrefix := item.ResponsePrefix
	if frame == "" {
		z := zone.Main
		if item.HasZone {
			z = item.Zone
		}
		wire, err := a.registry.Command(item.Name, z)
		if err != nil {
			return "", err
		}
		frame = item.Prefix + wire.Token + item.Suffix
		responsePrefix = wire.Response
	}

	// One outstanding request, and thus one waiter per prefix, at a time.
	a.requestMu.Lock()
	defer a.requestMu.Unlock()

	var waiter *connection.Waiter
	if responsePrefix != "" {
		waiter = a.responder.Register(responsePrefix, item.Name)
	}
	if err := a.conn.Send(ctx, frame, item.RateLimit); err != nil {
		if waiter != nil {
			waiter.Cancel()
		}
		return "", err
	}
	if waiter == nil {
		return "", nil
	}
	return waiter.Wait(ctx, a.conn.Timeout())
}

// submit enqueues an item and waits for its completion.
func (a *PioneerAVR) submit(ctx context.Context, item *queue.Item) (string, error) {
	if !a.enqueue(item) {
		return "", nil
	}
	select {
	case err := <-item.Done():
		return item.Result, err
	case <-ctx.Done():
		return "", avrerr.NewCancelled(item.Name)
	}
}

// checkAvailable gates facade operations on session readiness.
func (a *PioneerAVR) checkAvailable(op string, allowStarting bool) error {
	switch a.conn.State() {
	case connection.Ready:
		return nil
	case connection.Starting:
		if allowStarting {
			return nil
		}
	}
	return avrerr.NewUnavailable(op)
}
