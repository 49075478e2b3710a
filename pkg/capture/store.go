package capture

import (
	"sync"

	"github.com/gobwas/glob"
)

// Store holds the two bounded, ordered capture sequences for a single hosted
// page session: console entries and network entries. Both preserve arrival
// order and evict from the front when full, so the newest entries always
// survive an unbounded producer.
//
// All mutation is serialized under one mutex. Bridge deliveries arrive on
// arbitrary goroutines; the store is the single point where they are ordered.
type Store struct {
	mu sync.Mutex

	console         []ConsoleEntry
	network         []NetworkEntry
	consoleCapacity int
	networkCapacity int
	errorCount      int

	subscribers []chan Event
}

// NewStore creates an empty store with the contract capacities
// (ConsoleCapacity, NetworkCapacity).
func NewStore() *Store {
	return &Store{
		consoleCapacity: ConsoleCapacity,
		networkCapacity: NetworkCapacity,
	}
}

// newStoreWithCapacities is used by tests to exercise eviction without
// building thousands of entries.
func newStoreWithCapacities(consoleCap, networkCap int) *Store {
	return &Store{
		consoleCapacity: consoleCap,
		networkCapacity: networkCap,
	}
}

// AppendConsole records a console entry with the current host-clock
// timestamp. Unrecognized levels are stored as LevelLog. The operation is
// total: it cannot fail, and eviction happens as part of the insert.
func (s *Store) AppendConsole(level, message string) ConsoleEntry {
	entry := ConsoleEntry{
		ID:        newEntryID(),
		Level:     ParseLevel(level),
		Message:   message,
		Timestamp: timestampNow(),
	}

	s.mu.Lock()
	for len(s.console) >= s.consoleCapacity {
		if s.console[0].Level == LevelError {
			s.errorCount--
		}
		s.console = s.console[1:]
	}
	s.console = append(s.console, entry)
	if entry.Level == LevelError {
		s.errorCount++
	}
	s.notifyLocked(Event{Kind: EventConsoleAppended, Console: &entry})
	s.mu.Unlock()

	return entry
}

// AppendNetwork records a network entry with the current host-clock
// timestamp. Same eviction discipline as AppendConsole; total function.
func (s *Store) AppendNetwork(c NetworkCapture) NetworkEntry {
	method := c.Method
	if method == "" {
		method = "GET"
	}
	entry := NetworkEntry{
		ID:                  newEntryID(),
		Method:              method,
		URL:                 c.URL,
		Timestamp:           timestampNow(),
		RequestHeaders:      c.RequestHeaders,
		RequestBody:         c.RequestBody,
		ResponseHeaders:     c.ResponseHeaders,
		ResponseBody:        c.ResponseBody,
		ResponseContentType: c.ResponseContentType,
	}
	if c.StatusCode != nil {
		entry.StatusCode = *c.StatusCode
		entry.HasStatus = true
	}
	if c.DurationSeconds != nil {
		entry.DurationSeconds = *c.DurationSeconds
		entry.HasDuration = true
	}

	s.mu.Lock()
	for len(s.network) >= s.networkCapacity {
		s.network = s.network[1:]
	}
	s.network = append(s.network, entry)
	s.notifyLocked(Event{Kind: EventNetworkAppended, Network: &entry})
	s.mu.Unlock()

	return entry
}

// ClearConsole empties the console sequence and resets the error counter.
func (s *Store) ClearConsole() {
	s.mu.Lock()
	s.console = nil
	s.errorCount = 0
	s.notifyLocked(Event{Kind: EventConsoleCleared})
	s.mu.Unlock()
}

// ClearNetwork empties the network sequence.
func (s *Store) ClearNetwork() {
	s.mu.Lock()
	s.network = nil
	s.notifyLocked(Event{Kind: EventNetworkCleared})
	s.mu.Unlock()
}

// Clear empties both sequences. Used when the hosted URL changes.
func (s *Store) Clear() {
	s.ClearConsole()
	s.ClearNetwork()
}

// Console returns a snapshot of the console sequence, oldest first.
func (s *Store) Console() []ConsoleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.console) == 0 {
		return nil
	}
	out := make([]ConsoleEntry, len(s.console))
	copy(out, s.console)
	return out
}

// Network returns a snapshot of the network sequence, oldest first.
func (s *Store) Network() []NetworkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.network) == 0 {
		return nil
	}
	out := make([]NetworkEntry, len(s.network))
	copy(out, s.network)
	return out
}

// ErrorCount returns the number of console entries currently stored with
// LevelError.
func (s *Store) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

// ConsoleLen returns the current console sequence length.
func (s *Store) ConsoleLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.console)
}

// NetworkLen returns the current network sequence length.
func (s *Store) NetworkLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.network)
}

// ConsoleWithLevel returns a snapshot of console entries matching the given
// level, oldest first.
func (s *Store) ConsoleWithLevel(level Level) []ConsoleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ConsoleEntry
	for _, entry := range s.console {
		if entry.Level == level {
			out = append(out, entry)
		}
	}
	return out
}

// NetworkMatching returns network entries whose URL matches the given glob
// pattern (empty pattern matches everything) and whose method equals method
// (empty matches everything), oldest first, capped at limit when limit > 0.
// A malformed pattern matches nothing.
func (s *Store) NetworkMatching(urlPattern, method string, limit int) []NetworkEntry {
	var matcher glob.Glob
	if urlPattern != "" {
		g, err := glob.Compile(urlPattern)
		if err != nil {
			return nil
		}
		matcher = g
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NetworkEntry
	for _, entry := range s.network {
		if matcher != nil && !matcher.Match(entry.URL) {
			continue
		}
		if method != "" && entry.Method != method {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
