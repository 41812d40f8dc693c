package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"chat-relay/internal/storage"
)

// DailyStats summarizes one day of relayed exchanges.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalMessages  int                     `json:"total_messages"`
	UniqueSessions int                     `json:"unique_sessions"`
	FallbackCount  int                     `json:"fallback_count"`
	TotalTokens    int                     `json:"total_tokens"`
	FailedChunks   int                     `json:"failed_chunks"`
	ByChannel      map[string]int          `json:"by_channel"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionKey  string `json:"session_key"`
	Messages    int    `json:"messages"`
	TotalTokens int    `json:"total_tokens"`
}

// AnalyzeDailyLogs aggregates events whose timestamp falls on targetDate in
// targetDate's location.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		ByChannel:    make(map[string]int),
		SessionStats: make(map[string]SessionStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		stats.TotalTokens += event.TotalTokens
		stats.FailedChunks += event.ChunksFailed
		if event.Fallback {
			stats.FallbackCount++
		}
		ch := event.Channel
		if ch == "" {
			ch = "unknown"
		}
		stats.ByChannel[ch]++

		ss := stats.SessionStats[event.SessionKey]
		ss.SessionKey = event.SessionKey
		ss.Messages++
		ss.TotalTokens += event.TotalTokens
		stats.SessionStats[event.SessionKey] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	return stats
}

// Summary renders a short human-readable report.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Relay usage for %s: %d messages, %d sessions, %d tokens, %d fallback replies, %d failed chunks",
		ds.Date, ds.TotalMessages, ds.UniqueSessions, ds.TotalTokens, ds.FallbackCount, ds.FailedChunks)

	channels := make([]string, 0, len(ds.ByChannel))
	for ch := range ds.ByChannel {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	for _, ch := range channels {
		fmt.Fprintf(&b, "\n- %s: %d", ch, ds.ByChannel[ch])
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
