package capture

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// FormatConsoleText renders console entries as plain text, one line per
// entry, oldest first. Used for clipboard copy and the CLI dump output.
func FormatConsoleText(entries []ConsoleEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "[%s] [%s] %s\n", entry.Timestamp, strings.ToUpper(string(entry.Level)), entry.Message)
	}
	return b.String()
}

// FormatNetworkText renders network entries as plain text, oldest first.
// Transport failures (status 0) render as FAILED; pending or unknown
// outcomes render with a dash.
func FormatNetworkText(entries []NetworkEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		status := "-"
		if entry.HasStatus {
			if entry.StatusCode == 0 {
				status = "FAILED"
			} else {
				status = fmt.Sprintf("%d", entry.StatusCode)
			}
		}
		duration := ""
		if entry.HasDuration {
			duration = fmt.Sprintf(" (%.3fs)", entry.DurationSeconds)
		}
		fmt.Fprintf(&b, "[%s] %s %s %s%s\n", entry.Timestamp, entry.Method, entry.URL, status, duration)
	}
	return b.String()
}

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}
