package gameflow

import "encoding/json"

// Session is the typed view of a gameflow session payload. Only the fields
// the monitor acts on are decoded; the full document is cached separately for
// change detection.
type Session struct {
	Data SessionData `json:"data"`
}

// SessionData is the session body nested under the payload's data key.
type SessionData struct {
	Phase     string          `json:"phase"`
	GameData  GameData        `json:"gameData"`
	GameDodge json.RawMessage `json:"gameDodge"`
}

// GameData carries the match identity fields used for naming captures.
type GameData struct {
	Queue  Queue       `json:"queue"`
	GameID json.Number `json:"gameId"`
}

// Queue identifies the matchmaking mode.
type Queue struct {
	Type string `json:"type"`
}

// QueueType returns the matchmaking mode identifier, empty when absent.
func (d SessionData) QueueType() string {
	return d.GameData.Queue.Type
}

// GameID returns the match identifier, or "unknown" when the session does
// not carry one yet.
func (d SessionData) GameID() string {
	if d.GameData.GameID == "" {
		return "unknown"
	}
	return d.GameData.GameID.String()
}
