package capture

// EventKind identifies a store change notification.
type EventKind string

const (
	EventConsoleAppended EventKind = "console_appended" // EventConsoleAppended indicates a console entry was stored.
	EventNetworkAppended EventKind = "network_appended" // EventNetworkAppended indicates a network entry was stored.
	EventConsoleCleared  EventKind = "console_cleared"  // EventConsoleCleared indicates the console sequence was emptied.
	EventNetworkCleared  EventKind = "network_cleared"  // EventNetworkCleared indicates the network sequence was emptied.
)

// Event notifies a subscriber of a store change. Console and Network are set
// only for their respective appended kinds.
type Event struct {
	Kind    EventKind
	Console *ConsoleEntry
	Network *NetworkEntry
}

// subscriberBuffer bounds each subscriber channel. Delivery is best-effort:
// a slow consumer loses notifications, never blocks an append. The store
// itself remains the source of truth, so a dropped notification only delays
// a repaint.
const subscriberBuffer = 256

// Subscribe registers a change listener and returns its channel. The channel
// is never closed by the store; consumers stop reading when done.
func (s *Store) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

// notifyLocked fans an event out to all subscribers without blocking.
// Must be called with s.mu held.
func (s *Store) notifyLocked(event Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
