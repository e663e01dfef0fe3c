package gateway

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/normanking/avatarmotion/internal/bus"
	"github.com/normanking/avatarmotion/internal/config"
	"github.com/normanking/avatarmotion/internal/engine"
)

// stubController records which engine calls the gateway dispatched.
type stubController struct {
	calls    []string
	playedID string
	pointer  [2]float32
	in       bool
}

func (s *stubController) Snapshot() engine.PoseFrame { s.calls = append(s.calls, "snapshot"); return engine.PoseFrame{Motion: "idle"} }
func (s *stubController) PlayMotion(id string) bool {
	s.calls = append(s.calls, "play")
	s.playedID = id
	return true
}
func (s *stubController) PlayEmotionIdle(emotion string) bool {
	s.calls = append(s.calls, "emotion_idle")
	return true
}
func (s *stubController) ResetIdleTimer() { s.calls = append(s.calls, "reset_idle") }
func (s *stubController) SetEmotion(map[string]float32) {
	s.calls = append(s.calls, "set_emotion")
}
func (s *stubController) SetAffection(float32) { s.calls = append(s.calls, "affection") }
func (s *stubController) SetPointer(nx, ny float32, in bool) {
	s.calls = append(s.calls, "pointer")
	s.pointer = [2]float32{nx, ny}
	s.in = in
}
func (s *stubController) StartDrag(float32, float32) (string, bool) {
	s.calls = append(s.calls, "drag_start")
	return "session", true
}
func (s *stubController) EndDrag()                 { s.calls = append(s.calls, "drag_end") }
func (s *stubController) SetHobbyKeywords([]string) { s.calls = append(s.calls, "keywords") }

func testServer(ctrl Controller) *Server {
	return NewServer(config.DefaultConfig().Gateway, ctrl, bus.NewEventBus(), zerolog.Nop())
}

func TestDispatchRoutesMessages(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"type":"pointer","x":0.5,"y":-0.2,"in":true}`, "pointer"},
		{`{"type":"pointer_down","x":0,"y":0}`, "drag_start"},
		{`{"type":"pointer_up"}`, "drag_end"},
		{`{"type":"play","id":"gesture_wave"}`, "play"},
		{`{"type":"emotion","weights":{"happy":1}}`, "set_emotion"},
		{`{"type":"emotion_idle","emotion":"sad"}`, "emotion_idle"},
		{`{"type":"affection","value":42}`, "affection"},
		{`{"type":"keywords","keywords":["music"]}`, "keywords"},
		{`{"type":"user_input"}`, "reset_idle"},
	}
	for _, tc := range cases {
		ctrl := &stubController{}
		srv := testServer(ctrl)

		var msg inbound
		if err := json.Unmarshal([]byte(tc.raw), &msg); err != nil {
			t.Fatalf("bad test message %s: %v", tc.raw, err)
		}
		srv.dispatch(&msg)

		if len(ctrl.calls) != 1 || ctrl.calls[0] != tc.want {
			t.Errorf("message %s dispatched %v, want [%s]", tc.raw, ctrl.calls, tc.want)
		}
	}
}

func TestDispatchPointerPayload(t *testing.T) {
	ctrl := &stubController{}
	srv := testServer(ctrl)

	var msg inbound
	json.Unmarshal([]byte(`{"type":"pointer","x":0.5,"y":-0.25,"in":true}`), &msg)
	srv.dispatch(&msg)

	if ctrl.pointer != [2]float32{0.5, -0.25} || !ctrl.in {
		t.Errorf("pointer payload lost: %v in=%v", ctrl.pointer, ctrl.in)
	}
}

func TestDispatchUnknownTypeIgnored(t *testing.T) {
	ctrl := &stubController{}
	srv := testServer(ctrl)

	var msg inbound
	json.Unmarshal([]byte(`{"type":"teleport"}`), &msg)
	srv.dispatch(&msg)

	if len(ctrl.calls) != 0 {
		t.Errorf("unknown message type reached the controller: %v", ctrl.calls)
	}
}

func TestOutboundFrameShape(t *testing.T) {
	payload, err := json.Marshal(outbound{Type: "pose", Frame: engine.PoseFrame{
		Motion:  "idle_sway",
		Emotion: "happy",
		Bones:   map[string][4]float32{"Head": {0, 0, 0, 1}},
		Face:    map[string]float32{"blink": 0.2},
	}})
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Type  string `json:"type"`
		Frame struct {
			Motion string `json:"motion"`
		} `json:"frame"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != "pose" || decoded.Frame.Motion != "idle_sway" {
		t.Errorf("unexpected wire shape: %s", payload)
	}
}
