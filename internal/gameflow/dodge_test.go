package gameflow

import (
	"encoding/json"
	"testing"
)

func TestClassifyDodge(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		verdict Verdict
		phase   string
		ids     int
	}{
		{name: "absent", raw: "", verdict: NotDodged},
		{name: "null", raw: "null", verdict: NotDodged},
		{name: "empty object", raw: "{}", verdict: NotDodged},
		{name: "confirmed in champ select", raw: `{"phase":"ChampSelect","state":"PartyDodged","dodgeIds":[1,2]}`, verdict: ConfirmedDodge, phase: "ChampSelect", ids: 2},
		{name: "confirmed in ready check", raw: `{"phase":"ReadyCheck","state":"PartyDodged"}`, verdict: ConfirmedDodge, phase: "ReadyCheck"},
		{name: "wrong state", raw: `{"phase":"ChampSelect","state":"Invalid"}`, verdict: AmbiguousDodge, phase: "ChampSelect"},
		{name: "wrong phase", raw: `{"phase":"Matchmaking","state":"PartyDodged","dodgeIds":[9]}`, verdict: AmbiguousDodge, phase: "Matchmaking", ids: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var raw json.RawMessage
			if tc.raw != "" {
				raw = json.RawMessage(tc.raw)
			}
			dodge := ClassifyDodge(raw)
			if dodge.Verdict != tc.verdict {
				t.Fatalf("verdict = %v, want %v", dodge.Verdict, tc.verdict)
			}
			if dodge.Phase != tc.phase {
				t.Fatalf("phase = %q, want %q", dodge.Phase, tc.phase)
			}
			if len(dodge.AffectedIDs) != tc.ids {
				t.Fatalf("affected ids = %v, want %d entries", dodge.AffectedIDs, tc.ids)
			}
		})
	}
}

func TestCacheChangeDetection(t *testing.T) {
	var c Cache
	doc := map[string]any{"data": map[string]any{"phase": "Lobby"}}
	if !c.SessionChanged(doc) {
		t.Fatal("empty cache must report a change")
	}
	c.StoreSession(doc)
	same := map[string]any{"data": map[string]any{"phase": "Lobby"}}
	if c.SessionChanged(same) {
		t.Fatal("structurally equal document must not report a change")
	}
	different := map[string]any{"data": map[string]any{"phase": "ReadyCheck"}}
	if !c.SessionChanged(different) {
		t.Fatal("changed document must report a change")
	}
}

func TestSessionGameID(t *testing.T) {
	var sess Session
	if err := json.Unmarshal([]byte(`{"data":{"phase":"EndOfGame","gameData":{"queue":{"type":"NORMAL"},"gameId":7219942706}}}`), &sess); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := sess.Data.GameID(); got != "7219942706" {
		t.Fatalf("game id = %q", got)
	}
	var empty Session
	if got := empty.Data.GameID(); got != "unknown" {
		t.Fatalf("missing game id = %q, want unknown", got)
	}
}
