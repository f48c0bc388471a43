// Package model defines shared data structures.
package model

import "time"

// Contest defines the rules a session runs under.
type Contest struct {
	ID             string
	Title          string
	TimeLimitSec   int
	AllowBackspace bool
	Language       string
	MaxAttempts    int
	CreatedAt      time.Time
}

// Prompt is a display/target text pair a user types against.
type Prompt struct {
	ID           string
	DisplayText  string
	TypingTarget string
	Language     string
	OrderIndex   int
}

// Session is one timed attempt at a contest's prompts.
type Session struct {
	ID           string
	ContestID    string
	User         string
	Prompt       Prompt
	StartedAt    time.Time
	AttemptsUsed int
	OrderIndex   int
}

// KeyLogEntry records one classified keystroke. T is milliseconds
// since session start, K the pressed key, OK its correctness.
type KeyLogEntry struct {
	T  int64  `json:"t"`
	K  string `json:"k"`
	OK bool   `json:"ok"`
}

// ClientFlags carries the anomaly signals collected client-side.
type ClientFlags struct {
	Defocus      int     `json:"defocus"`
	PasteBlocked bool    `json:"pasteBlocked"`
	AnomalyScore float64 `json:"anomalyScore"`
}

// FinishRequest is the payload submitted when a session ends.
type FinishRequest struct {
	CPM      int           `json:"cpm"`
	WPM      int           `json:"wpm"`
	Accuracy float64       `json:"accuracy"`
	Score    int           `json:"score"`
	Errors   int           `json:"errors"`
	Keylog   []KeyLogEntry `json:"keylog"`
	Flags    ClientFlags   `json:"clientFlags"`
}

// SessionResult is the immutable snapshot of a finished session.
type SessionResult struct {
	SessionID   string
	ContestID   string
	User        string
	CPM         int
	WPM         int
	Accuracy    float64
	Score       int
	Errors      int
	Keylog      []KeyLogEntry
	Flags       ClientFlags
	CompletedAt time.Time
}

// LeaderboardEntry is one ranked row. Rank is derived from the
// ordered entry list, never stored authoritatively.
type LeaderboardEntry struct {
	SessionID string
	UserID    string
	Username  string
	Rank      int
	Score     int
	CPM       int
	Accuracy  float64
}

// LeaderboardPage is the view exposed to consumers: top entries plus
// an optional personal row when the viewer falls outside the top.
type LeaderboardPage struct {
	Top   []LeaderboardEntry
	Total int
	Me    *LeaderboardEntry
}

// PlayConfig defines settings for the play command.
type PlayConfig struct {
	Contest  string
	User     string
	AutoNext bool
}

// BoardConfig defines filters and options for leaderboard output.
type BoardConfig struct {
	Top            int
	RefreshSeconds int
}
