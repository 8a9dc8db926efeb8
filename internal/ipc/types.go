package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon and monitor state.
type StatusResponse struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	Topic         string    `json:"topic"`
	LockPath      string    `json:"lock_path"`
	LibraryDBPath string    `json:"library_db_path"`
	Phase         string    `json:"phase"`
	QueueType     string    `json:"queue_type"`
	InGame        bool      `json:"in_game"`
	Recording     bool      `json:"recording"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// RecordingsRequest lists recent captures.
type RecordingsRequest struct {
	Limit int `json:"limit"`
}

// Recording is one capture history row.
type Recording struct {
	ID         string     `json:"id"`
	GameID     string     `json:"game_id"`
	QueueType  string     `json:"queue_type"`
	Phase      string     `json:"phase"`
	OutputPath string     `json:"output_path"`
	Outcome    string     `json:"outcome"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// RecordingsResponse contains capture history entries, newest first.
type RecordingsResponse struct {
	Recordings []Recording `json:"recordings"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
