package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/webtap/pkg/capture"
)

// Level tags are colored; message text stays unstyled so terminal copy/paste
// remains clean.
var levelStyles = map[capture.Level]lipgloss.Style{
	capture.LevelLog:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	capture.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	capture.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	capture.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	capture.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
}

var (
	networkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// streamEvents prints store change notifications until ctx is cancelled.
func streamEvents(ctx context.Context, events <-chan capture.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			printEvent(event)
		}
	}
}

func printEvent(event capture.Event) {
	switch event.Kind {
	case capture.EventConsoleAppended:
		entry := event.Console
		style, ok := levelStyles[entry.Level]
		if !ok {
			style = levelStyles[capture.LevelLog]
		}
		fmt.Printf("%s %s\n", style.Render(fmt.Sprintf("[%s]", entry.Level)), entry.Message)
	case capture.EventNetworkAppended:
		entry := event.Network
		status := "-"
		style := networkStyle
		if entry.HasStatus {
			if entry.StatusCode == 0 {
				status = "FAILED"
				style = failedStyle
			} else {
				status = fmt.Sprintf("%d", entry.StatusCode)
				if entry.StatusCode >= 400 {
					style = failedStyle
				}
			}
		}
		duration := ""
		if entry.HasDuration {
			duration = fmt.Sprintf(" %.3fs", entry.DurationSeconds)
		}
		fmt.Printf("%s %s%s\n", style.Render(fmt.Sprintf("[%s %s]", entry.Method, status)), entry.URL, duration)
	case capture.EventConsoleCleared:
		fmt.Println(levelStyles[capture.LevelDebug].Render("[console cleared]"))
	case capture.EventNetworkCleared:
		fmt.Println(levelStyles[capture.LevelDebug].Render("[network cleared]"))
	}
}
