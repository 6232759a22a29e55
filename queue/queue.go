// Package queue implements the ordered command queues consumed by the
// command executor. Items in lower-numbered queues run first; within a queue
// order is strict FIFO.
package queue

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/crowbarz/pioneeravr-go/zone"
)

// MainQueue is the default queue for user and refresh commands. DelayedQueue
// holds deferred refreshes so they do not starve the main queue.
const (
	MainQueue    = 0
	DelayedQueue = 2
)

// Item is an intent to act: an AVR command mnemonic or a local
// pseudo-command (name beginning with "_") with its arguments. Two items are
// equal for dedup purposes when name and args match; placement flags are
// ignored.
type Item struct {
	Name string
	Args []any

	Zone      zone.Zone
	HasZone   bool
	Prefix    string
	Suffix    string
	RateLimit bool

	// Raw bypasses the command table: the frame is sent verbatim and
	// ResponsePrefix (if any) correlates the response.
	Raw            string
	ResponsePrefix string

	// Result holds the response suffix once the item completes.
	Result string

	QueueID  int
	InsertAt int // negative counts from the tail

	SkipIfStarting   bool
	SkipIfQueued     bool
	SkipIfRefreshing bool

	done chan error
}

// NewItem creates a queue item appended to the tail of the main queue.
func NewItem(name string, args ...any) *Item {
	return &Item{
		Name:      name,
		Args:      args,
		RateLimit: true,
		InsertAt:  -1,
		done:      make(chan error, 1),
	}
}

// NewCommand creates a zone-scoped wire command item.
func NewCommand(name string, z zone.Zone) *Item {
	item := NewItem(name, z)
	item.Zone = z
	item.HasZone = true
	return item
}

// Equal reports dedup equality: name and args, ignoring placement flags.
func (i *Item) Equal(other *Item) bool {
	return i.Name == other.Name && reflect.DeepEqual(i.Args, other.Args)
}

// Complete resolves the item's completion handle. Only the first call wins.
func (i *Item) Complete(err error) {
	select {
	case i.done <- err:
	default:
	}
}

// Done returns the completion channel delivering the item's final error.
func (i *Item) Done() <-chan error { return i.done }

func (i *Item) String() string {
	if len(i.Args) == 0 {
		return i.Name
	}
	return fmt.Sprintf("%s%v", i.Name, i.Args)
}

// Queues is the set of command queues keyed by queue ID.
type Queues struct {
	mu     sync.Mutex
	queues map[int][]*Item
}

// New creates an empty queue set.
func New() *Queues {
	return &Queues{queues: map[int][]*Item{}}
}

// Enqueue inserts an item into its queue. When the item's SkipIfQueued flag
// is set and an equal item is already queued, the queue is unchanged and
// false is returned.
func (q *Queues) Enqueue(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item.SkipIfQueued && q.containsLocked(item) {
		return false
	}

	queue := q.queues[item.QueueID]
	at := item.InsertAt
	if at < 0 {
		at = len(queue) + 1 + at
	}
	if at < 0 {
		at = 0
	}
	if at > len(queue) {
		at = len(queue)
	}
	queue = append(queue, nil)
	copy(queue[at+1:], queue[at:])
	queue[at] = item
	q.queues[item.QueueID] = queue
	return true
}

// Extend enqueues multiple items in order. Returns the items actually
// queued.
func (q *Queues) Extend(items []*Item) []*Item {
	var queued []*Item
	for _, item := range items {
		if q.Enqueue(item) {
			queued = append(queued, item)
		}
	}
	return queued
}

// Contains reports whether an equal item is queued.
func (q *Queues) Contains(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.containsLocked(item)
}

func (q *Queues) containsLocked(item *Item) bool {
	for _, queue := range q.queues {
		for _, cand := range queue {
			if cand.Equal(item) {
				return true
			}
		}
	}
	return false
}

// ActiveQueue returns the lowest-numbered non-empty queue ID.
func (q *Queues) ActiveQueue() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.idsLocked() {
		if len(q.queues[id]) > 0 {
			return id, true
		}
	}
	return 0, false
}

// Peek returns the item at pos in the given queue, or the head of the
// active queue when queueID is negative.
func (q *Queues) Peek(queueID, pos int) *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if queueID >= 0 {
		queue := q.queues[queueID]
		if pos < len(queue) {
			return queue[pos]
		}
		return nil
	}
	for _, id := range q.idsLocked() {
		if queue := q.queues[id]; pos < len(queue) {
			return queue[pos]
		}
	}
	return nil
}

// Pop removes and returns the head of the active queue.
func (q *Queues) Pop() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.idsLocked() {
		queue := q.queues[id]
		if len(queue) == 0 {
			continue
		}
		item := queue[0]
		q.queues[id] = queue[1:]
		return item
	}
	return nil
}

// PopFrom removes and returns the head of a specific queue.
func (q *Queues) PopFrom(queueID int) *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.queues[queueID]
	if len(queue) == 0 {
		return nil
	}
	item := queue[0]
	q.queues[queueID] = queue[1:]
	return item
}

// Purge drops all queued items, completing each as cancelled with err.
func (q *Queues) Purge(err error) {
	q.mu.Lock()
	var dropped []*Item
	for id, queue := range q.queues {
		dropped = append(dropped, queue...)
		q.queues[id] = nil
	}
	q.mu.Unlock()
	for _, item := range dropped {
		item.Complete(err)
	}
}

// Commands returns the names of all queued items in execution order.
func (q *Queues) Commands() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var names []string
	for _, id := range q.idsLocked() {
		for _, item := range q.queues[id] {
			names = append(names, item.Name)
		}
	}
	return names
}

// Len returns the total number of queued items.
func (q *Queues) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, queue := range q.queues {
		n += len(queue)
	}
	return n
}

func (q *Queues) idsLocked() []int {
	ids := make([]int, 0, len(q.queues))
	for id := range q.queues {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
