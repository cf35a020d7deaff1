package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/effects"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/worker"
)

const duelJSON = `{
	"combat_type": "space",
	"attacker": {"faction": "sol", "units": [{"type": "fighter"}]},
	"defender": {"faction": "hacan", "units": [{"type": "fighter"}]}
}`

const negativeCountJSON = `{
	"combat_type": "space",
	"attacker": {"faction": "sol", "units": [{"type": "fighter", "count": -1}]},
	"defender": {"faction": "hacan", "units": [{"type": "fighter"}]}
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := combat.NewEngine(catalog.Default(), effects.Default(), combat.Options{MaxRounds: 200})
	srv := httptest.NewServer(New(worker.NewPool(engine, 2, nil), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/catalog")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var view struct {
		Units []catalog.Definition `json:"units"`
		Tags  []struct {
			ID          catalog.TagID `json:"id"`
			Implemented bool          `json:"implemented"`
		} `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Units) != len(catalog.UnitTypes()) {
		t.Fatalf("expected %d units, got %d", len(catalog.UnitTypes()), len(view.Units))
	}
	implemented := map[catalog.TagID]bool{}
	for _, tag := range view.Tags {
		implemented[tag.ID] = tag.Implemented
	}
	if !implemented[catalog.Nebula] || implemented[catalog.DirectHit] {
		t.Fatalf("unexpected implemented flags %v", implemented)
	}
}

func TestCompute(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/v1/compute", "application/json", strings.NewReader(duelJSON))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Victors combat.Victors `json:"victors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(out.Victors.Attacker-0.16/0.36) > 1e-9 {
		t.Fatalf("unexpected attacker probability %v", out.Victors.Attacker)
	}
}

func TestComputeErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"malformed", `{"combat_type":`, http.StatusBadRequest, ""},
		{"unknown field", `{"combat_type":"space","teleport":true}`, http.StatusBadRequest, ""},
		{"unknown faction", strings.Replace(duelJSON, `"sol"`, `"nobody"`, 1), http.StatusBadRequest, "attacker.faction"},
		{"negative count", negativeCountJSON, http.StatusBadRequest, "attacker.units[0].count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/compute", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error == "" || body.Field != tt.field {
				t.Fatalf("unexpected error body %+v", body)
			}
		})
	}
}

func TestComputeMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/compute")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestWebSocket(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"compute","data":`+duelJSON+`}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var accepted ServerMessage
	if err := conn.ReadJSON(&accepted); err != nil {
		t.Fatalf("read accepted: %v", err)
	}
	if accepted.Type != MsgAccepted || accepted.Token == "" {
		t.Fatalf("unexpected first message %+v", accepted)
	}

	var result struct {
		Type   string `json:"type"`
		Token  string `json:"token"`
		Output struct {
			Victors combat.Victors `json:"victors"`
		} `json:"output"`
	}
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if result.Type != MsgResult || result.Token != accepted.Token {
		t.Fatalf("unexpected result %+v", result)
	}
	if math.Abs(result.Output.Victors.Draw-0.04/0.36) > 1e-9 {
		t.Fatalf("unexpected draw probability %v", result.Output.Victors.Draw)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"launch"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var bad ServerMessage
	if err := conn.ReadJSON(&bad); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if bad.Type != MsgError {
		t.Fatalf("expected error message, got %+v", bad)
	}
}
