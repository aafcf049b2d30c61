package database

import "sync"

// notifier coalesces table-change signals and fans them out to subscribers.
// It backs the live query channels the same way a reactive query layer
// re-runs its query after every committed write.
type notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[chan struct{}]struct{})}
}

func (n *notifier) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.subs, ch)
	n.mu.Unlock()
}

// broadcast signals every subscriber without blocking. Pending signals
// coalesce: a subscriber that hasn't drained yet gets one wake-up.
func (n *notifier) broadcast() {
	n.mu.Lock()
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	n.mu.Unlock()
}

var (
	statsNotifier       = newNotifier()
	achievementNotifier = newNotifier()
	detectionNotifier   = newNotifier()
	scenarioNotifier    = newNotifier()
)
