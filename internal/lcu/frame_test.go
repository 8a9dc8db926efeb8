package lcu

import (
	"errors"
	"testing"

	"riftcap/internal/services"
)

func TestDecodeEvent(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		kind    int
		topic   string
	}{
		{name: "valid", raw: `[8,"OnJsonApiEvent_lol-gameflow_v1_session",{"data":{}}]`, kind: 8, topic: "OnJsonApiEvent_lol-gameflow_v1_session"},
		{name: "extra elements tolerated", raw: `[8,"topic",{},"extra"]`, kind: 8, topic: "topic"},
		{name: "null payload", raw: `[0,"topic",null]`, kind: 0, topic: "topic"},
		{name: "not json", raw: `hello`, wantErr: true},
		{name: "object not array", raw: `{"a":1}`, wantErr: true},
		{name: "too short", raw: `[8,"topic"]`, wantErr: true},
		{name: "empty array", raw: `[]`, wantErr: true},
		{name: "kind not number", raw: `["x","topic",{}]`, wantErr: true},
		{name: "topic not string", raw: `[8,7,{}]`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evt, err := DecodeEvent([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected decode error for %q", tc.raw)
				}
				if !errors.Is(err, services.ErrDecode) {
					t.Fatalf("expected decode marker, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if evt.Kind != tc.kind || evt.Topic != tc.topic {
				t.Fatalf("got kind=%d topic=%q", evt.Kind, evt.Topic)
			}
		})
	}
}
