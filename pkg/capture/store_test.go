package capture

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func TestAppendConsole_StoresEntry(t *testing.T) {
	store := NewStore()

	entry := store.AppendConsole("warn", "something odd")

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, LevelWarn, entry.Level)
	assert.Equal(t, "something odd", entry.Message)
	assert.NotEmpty(t, entry.Timestamp)

	entries := store.Console()
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}

func TestAppendConsole_UnrecognizedLevelDefaultsToLog(t *testing.T) {
	store := NewStore()

	tests := []string{"verbose", "", "ERROR", "trace", "warning"}
	for _, level := range tests {
		t.Run(fmt.Sprintf("level=%q", level), func(t *testing.T) {
			entry := store.AppendConsole(level, "msg")
			assert.Equal(t, LevelLog, entry.Level)
		})
	}
}

func TestAppendConsole_ErrorCount(t *testing.T) {
	store := NewStore()

	store.AppendConsole("error", "boom")
	store.AppendConsole("log", "ok")
	store.AppendConsole("error", "boom again")

	assert.Equal(t, 2, store.ErrorCount())

	store.ClearConsole()
	assert.Equal(t, 0, store.ErrorCount())
	assert.Equal(t, 0, store.ConsoleLen())
}

func TestAppendConsole_OrderAndErrorCountScenario(t *testing.T) {
	store := NewStore()

	store.AppendConsole("error", "boom")
	store.AppendConsole("log", "ok")

	entries := store.Console()
	require.Len(t, entries, 2)
	assert.Equal(t, "boom", entries[0].Message)
	assert.Equal(t, LevelError, entries[0].Level)
	assert.Equal(t, "ok", entries[1].Message)
	assert.Equal(t, LevelLog, entries[1].Level)
	assert.Equal(t, 1, store.ErrorCount())
}

func TestEviction_RetainsNewestEntries(t *testing.T) {
	store := newStoreWithCapacities(10, 5)

	for i := 1; i <= 25; i++ {
		store.AppendConsole("log", fmt.Sprintf("c%d", i))
	}
	entries := store.Console()
	require.Len(t, entries, 10)
	assert.Equal(t, "c16", entries[0].Message)
	assert.Equal(t, "c25", entries[9].Message)

	for i := 1; i <= 8; i++ {
		store.AppendNetwork(NetworkCapture{URL: fmt.Sprintf("https://example.com/%d", i)})
	}
	network := store.Network()
	require.Len(t, network, 5)
	assert.Equal(t, "https://example.com/4", network[0].URL)
	assert.Equal(t, "https://example.com/8", network[4].URL)
}

func TestEviction_AtContractCapacity(t *testing.T) {
	store := NewStore()

	// 5050 appends with capacity 5000 leave exactly #51..#5050, in order.
	for i := 1; i <= ConsoleCapacity+50; i++ {
		store.AppendConsole("log", fmt.Sprintf("entry-%d", i))
	}

	entries := store.Console()
	require.Len(t, entries, ConsoleCapacity)
	assert.Equal(t, "entry-51", entries[0].Message)
	assert.Equal(t, fmt.Sprintf("entry-%d", ConsoleCapacity+50), entries[ConsoleCapacity-1].Message)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, fmt.Sprintf("entry-%d", 50+i+1), entries[i].Message)
	}
}

func TestEviction_DecrementsErrorCount(t *testing.T) {
	store := newStoreWithCapacities(3, 3)

	store.AppendConsole("error", "first error")
	store.AppendConsole("log", "one")
	store.AppendConsole("log", "two")
	assert.Equal(t, 1, store.ErrorCount())

	// Evicts the error at the front.
	store.AppendConsole("log", "three")
	assert.Equal(t, 0, store.ErrorCount())
	assert.Equal(t, 3, store.ConsoleLen())

	// errorCount always equals the stored error entries.
	store.AppendConsole("error", "late error")
	assert.Equal(t, 1, store.ErrorCount())
	assert.Len(t, store.ConsoleWithLevel(LevelError), 1)
}

func TestAppendNetwork_Fields(t *testing.T) {
	store := NewStore()

	entry := store.AppendNetwork(NetworkCapture{
		Method:              "POST",
		URL:                 "https://api.example.com/items",
		StatusCode:          intPtr(201),
		DurationSeconds:     floatPtr(0.42),
		RequestHeaders:      map[string]string{"Content-Type": "application/json"},
		RequestBody:         strPtr(`{"name":"a"}`),
		ResponseHeaders:     map[string]string{"content-type": "application/json"},
		ResponseBody:        strPtr(`{"id":1}`),
		ResponseContentType: strPtr("application/json"),
	})

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "POST", entry.Method)
	assert.True(t, entry.HasStatus)
	assert.Equal(t, 201, entry.StatusCode)
	assert.True(t, entry.HasDuration)
	assert.InDelta(t, 0.42, entry.DurationSeconds, 1e-9)
	require.NotNil(t, entry.ResponseBody)
	assert.Equal(t, `{"id":1}`, *entry.ResponseBody)
}

func TestAppendNetwork_Defaults(t *testing.T) {
	store := NewStore()

	entry := store.AppendNetwork(NetworkCapture{URL: "https://example.com"})

	assert.Equal(t, "GET", entry.Method)
	assert.False(t, entry.HasStatus)
	assert.False(t, entry.HasDuration)
	assert.Nil(t, entry.RequestBody)
	assert.Nil(t, entry.ResponseBody)
	assert.Nil(t, entry.ResponseContentType)
}

func TestAppendNetwork_TransportFailureSentinel(t *testing.T) {
	store := NewStore()

	entry := store.AppendNetwork(NetworkCapture{
		Method:     "GET",
		URL:        "https://unreachable.invalid/",
		StatusCode: intPtr(0),
	})

	assert.True(t, entry.HasStatus)
	assert.Equal(t, 0, entry.StatusCode)
	assert.Nil(t, entry.ResponseHeaders)
	assert.Nil(t, entry.ResponseBody)
}

func TestClearNetwork(t *testing.T) {
	store := NewStore()
	store.AppendNetwork(NetworkCapture{URL: "https://example.com"})
	store.AppendConsole("error", "kept")

	store.ClearNetwork()

	assert.Equal(t, 0, store.NetworkLen())
	assert.Equal(t, 1, store.ConsoleLen())
	assert.Equal(t, 1, store.ErrorCount())
}

func TestSnapshots_AreIsolated(t *testing.T) {
	store := NewStore()
	store.AppendConsole("log", "one")

	snapshot := store.Console()
	store.AppendConsole("log", "two")

	assert.Len(t, snapshot, 1)
	assert.Len(t, store.Console(), 2)
}

func TestConsoleWithLevel(t *testing.T) {
	store := NewStore()
	store.AppendConsole("log", "a")
	store.AppendConsole("error", "b")
	store.AppendConsole("warn", "c")
	store.AppendConsole("error", "d")

	errors := store.ConsoleWithLevel(LevelError)
	require.Len(t, errors, 2)
	assert.Equal(t, "b", errors[0].Message)
	assert.Equal(t, "d", errors[1].Message)
}

func TestNetworkMatching(t *testing.T) {
	store := NewStore()
	store.AppendNetwork(NetworkCapture{Method: "GET", URL: "https://api.example.com/users"})
	store.AppendNetwork(NetworkCapture{Method: "POST", URL: "https://api.example.com/users"})
	store.AppendNetwork(NetworkCapture{Method: "GET", URL: "https://cdn.example.com/app.js"})

	tests := []struct {
		name    string
		pattern string
		method  string
		limit   int
		want    int
	}{
		{name: "all", pattern: "", method: "", limit: 0, want: 3},
		{name: "url glob", pattern: "https://api.example.com/*", method: "", limit: 0, want: 2},
		{name: "method", pattern: "", method: "POST", limit: 0, want: 1},
		{name: "glob and method", pattern: "https://api.*", method: "GET", limit: 0, want: 1},
		{name: "limit", pattern: "", method: "", limit: 2, want: 2},
		{name: "malformed pattern", pattern: "[", method: "", limit: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.NetworkMatching(tt.pattern, tt.method, tt.limit)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	store := NewStore()
	events := store.Subscribe()

	store.AppendConsole("info", "hello")
	store.AppendNetwork(NetworkCapture{URL: "https://example.com"})
	store.ClearConsole()
	store.ClearNetwork()

	kinds := []EventKind{
		EventConsoleAppended,
		EventNetworkAppended,
		EventConsoleCleared,
		EventNetworkCleared,
	}
	for _, want := range kinds {
		event := <-events
		assert.Equal(t, want, event.Kind)
	}
}

func TestSubscribe_SlowConsumerNeverBlocksAppend(t *testing.T) {
	store := newStoreWithCapacities(10, 10)
	store.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			store.AppendConsole("log", "flood")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("append blocked on a slow subscriber")
	}
}

func TestConcurrentAppends_SerializeSafely(t *testing.T) {
	store := newStoreWithCapacities(100, 100)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.AppendConsole("error", fmt.Sprintf("w%d-%d", id, i))
				store.AppendNetwork(NetworkCapture{URL: "https://example.com"})
			}
		}(worker)
	}
	wg.Wait()

	assert.Equal(t, 100, store.ConsoleLen())
	assert.Equal(t, 100, store.NetworkLen())
	// Every stored entry is an error, so the counter matches the length.
	assert.Equal(t, 100, store.ErrorCount())
}
