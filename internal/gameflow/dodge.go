package gameflow

import "encoding/json"

// Verdict classifies a gameDodge document.
type Verdict int

const (
	// NotDodged means the session carried no dodge document.
	NotDodged Verdict = iota
	// ConfirmedDodge means a party member left during ready check or
	// champion select, aborting matchmaking.
	ConfirmedDodge
	// AmbiguousDodge means a dodge document was present but did not match
	// the confirmed shape; it is tracked but never acted on.
	AmbiguousDodge
)

func (v Verdict) String() string {
	switch v {
	case ConfirmedDodge:
		return "confirmed"
	case AmbiguousDodge:
		return "ambiguous"
	default:
		return "none"
	}
}

// Dodge is the classified dodge state, carrying the dodge's own phase and
// affected participant ids regardless of verdict.
type Dodge struct {
	Verdict     Verdict
	Phase       string
	AffectedIDs []int64
}

type dodgeDocument struct {
	Phase    string  `json:"phase"`
	State    string  `json:"state"`
	DodgeIDs []int64 `json:"dodgeIds"`
}

// ClassifyDodge inspects the raw gameDodge sub-document. An absent or empty
// document is NotDodged; a PartyDodged state during ready check or champion
// select is ConfirmedDodge; anything else non-empty is AmbiguousDodge.
func ClassifyDodge(raw json.RawMessage) Dodge {
	if len(raw) == 0 {
		return Dodge{Verdict: NotDodged}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return Dodge{Verdict: NotDodged}
	}

	var doc dodgeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Dodge{Verdict: NotDodged}
	}
	verdict := AmbiguousDodge
	if (doc.Phase == phaseReadyCheck || doc.Phase == phaseChampSelect) && doc.State == "PartyDodged" {
		verdict = ConfirmedDodge
	}
	return Dodge{Verdict: verdict, Phase: doc.Phase, AffectedIDs: doc.DodgeIDs}
}
