package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/physics"
	"github.com/ZDSRepositories/dotwar/pkg/registry"
	"github.com/ZDSRepositories/dotwar/pkg/storage"
)

// fakeClock is an injectable wall clock for the registry.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var netEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	srv   *Server
	ts    *httptest.Server
	reg   *registry.Registry
	clock *fakeClock
	bus   *event.Bus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := storage.NewStore(t.TempDir(), config.DefaultPhysics())
	clock := &fakeClock{now: netEpoch}
	bus := event.NewBus()
	reg := registry.NewRegistry(store, clock, nil, bus)

	srv := NewServer(reg, nil, nil)
	bus.SubscribeAll(srv.Hub().Broadcast)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{srv: srv, ts: ts, reg: reg, clock: clock, bus: bus}
}

// seed creates a game with one attacker craft and returns its authcode.
func (s *testServer) seed(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	if err := s.reg.CreateGame(ctx, "solwar"); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	captain := "cooper"
	_, authcode, err := s.reg.AddShip(ctx, "solwar", "endurance", &captain,
		entity.TeamAttacker, physics.Vector3{X: 5e8})
	if err != nil {
		t.Fatalf("AddShip() error = %v", err)
	}
	return authcode
}

// getJSON fetches a path and decodes the body, asserting the status code.
func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding %s: %v", url, err)
	}
	return body
}

func TestGamesRoute(t *testing.T) {
	s := newTestServer(t)

	body := getJSON(t, s.ts.URL+"/games", http.StatusOK)
	if body["ok"] != true {
		t.Errorf("ok = %v, want true", body["ok"])
	}
	if games, _ := body["games"].([]any); len(games) != 0 {
		t.Errorf("games = %v, want empty", games)
	}

	s.seed(t)
	body = getJSON(t, s.ts.URL+"/games", http.StatusOK)
	games, _ := body["games"].([]any)
	if len(games) != 1 || games[0] != "solwar" {
		t.Errorf("games = %v, want [solwar]", games)
	}
}

func TestStatusRoute(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	for _, path := range []string{"/game/solwar", "/game/solwar/status"} {
		body := getJSON(t, s.ts.URL+path, http.StatusOK)
		game, _ := body["game"].(map[string]any)
		if game["name"] != "solwar" {
			t.Errorf("%s name = %v, want solwar", path, game["name"])
		}
		if game["system_time"] == nil {
			t.Errorf("%s missing system_time", path)
		}
	}
}

func TestStatusUnknownGame(t *testing.T) {
	s := newTestServer(t)

	body := getJSON(t, s.ts.URL+"/game/nowhere/status", http.StatusNotFound)
	if body["ok"] != false {
		t.Errorf("ok = %v, want false", body["ok"])
	}
	if body["msg"] == "" {
		t.Error("missing msg in error body")
	}
}

func TestScanRoute(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	t.Run("unfiltered", func(t *testing.T) {
		body := getJSON(t, s.ts.URL+"/game/solwar/scan", http.StatusOK)
		entities, _ := body["entities"].([]any)
		if len(entities) != 2 {
			t.Fatalf("scan returned %d entities, want 2", len(entities))
		}
		for _, raw := range entities {
			e := raw.(map[string]any)
			if _, leaked := e["authcode"]; leaked {
				t.Errorf("entity %v exposes authcode", e["name"])
			}
			if _, leaked := e["pending"]; leaked {
				t.Errorf("entity %v exposes pending orders", e["name"])
			}
		}
	})

	t.Run("filtered by type", func(t *testing.T) {
		u := s.ts.URL + "/game/solwar/scan?filter=" + url.QueryEscape(`{"type":"planet"}`)
		body := getJSON(t, u, http.StatusOK)
		entities, _ := body["entities"].([]any)
		if len(entities) != 1 {
			t.Fatalf("filtered scan returned %d entities, want 1", len(entities))
		}
		if name := entities[0].(map[string]any)["name"]; name != "Earth" {
			t.Errorf("filtered scan returned %v, want Earth", name)
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		u := s.ts.URL + "/game/solwar/scan?filter=" + url.QueryEscape(`{"type":`)
		body := getJSON(t, u, http.StatusBadRequest)
		if body["ok"] != false {
			t.Errorf("ok = %v, want false", body["ok"])
		}
	})
}

func TestOrderRoutes(t *testing.T) {
	s := newTestServer(t)
	authcode := s.seed(t)

	order := url.QueryEscape(`{"task":"burn","args":{"a":[100,0,0]},"interval":1800}`)
	base := s.ts.URL + "/game/solwar/add_order?vessel=endurance&order=" + order

	t.Run("wrong authcode is forbidden", func(t *testing.T) {
		body := getJSON(t, base+"&authcode=bogus", http.StatusForbidden)
		if body["ok"] != false {
			t.Errorf("ok = %v, want false", body["ok"])
		}
	})

	var addedID float64
	t.Run("add order", func(t *testing.T) {
		body := getJSON(t, base+"&authcode="+authcode, http.StatusOK)
		if body["ok"] != true {
			t.Fatalf("ok = %v, want true (msg=%v)", body["ok"], body["msg"])
		}
		addedID = body["added_id"].(float64)
	})

	t.Run("agenda shows the order", func(t *testing.T) {
		u := s.ts.URL + "/game/solwar/agenda?vessel=endurance&authcode=" + authcode
		body := getJSON(t, u, http.StatusOK)
		agenda, _ := body["agenda"].([]any)
		if len(agenda) != 1 {
			t.Fatalf("agenda has %d orders, want 1", len(agenda))
		}
	})

	t.Run("delete order", func(t *testing.T) {
		form := url.Values{}
		form.Set("vessel", "endurance")
		form.Set("authcode", authcode)
		form.Set("order_id", fmt.Sprintf("%d", int(addedID)))

		resp, err := http.Post(s.ts.URL+"/game/solwar/delete_order",
			"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		if err != nil {
			t.Fatalf("POST delete_order: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("delete_order status = %d, want 200", resp.StatusCode)
		}

		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decoding delete_order body: %v", err)
		}
		if body["removed_id"].(float64) != addedID || body["pending_count"].(float64) != 0 {
			t.Errorf("delete_order body = %v, want removed_id=%v pending_count=0", body, addedID)
		}
	})

	t.Run("delete missing order is not found", func(t *testing.T) {
		form := url.Values{}
		form.Set("vessel", "endurance")
		form.Set("authcode", authcode)
		form.Set("order_id", "99")

		resp, err := http.Post(s.ts.URL+"/game/solwar/delete_order",
			"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		if err != nil {
			t.Fatalf("POST delete_order: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("delete_order status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestEventLogRoute(t *testing.T) {
	s := newTestServer(t)
	authcode := s.seed(t)

	order := url.QueryEscape(`{"task":"burn","args":{"a":[100,0,0]}}`)
	getJSON(t, s.ts.URL+"/game/solwar/add_order?vessel=endurance&order="+order+
		"&authcode="+authcode, http.StatusOK)

	s.clock.advance(time.Hour)

	for _, path := range []string{"/game/solwar/event_log", "/game/solwar/summary"} {
		body := getJSON(t, s.ts.URL+path, http.StatusOK)
		events, _ := body["events"].([]any)
		if len(events) != 1 {
			t.Fatalf("%s returned %d events, want 1", path, len(events))
		}
		ev := events[0].(map[string]any)
		if ev["type"] != "burn" {
			t.Errorf("%s event type = %v, want burn", path, ev["type"])
		}
	}

	t.Run("bad time bound", func(t *testing.T) {
		body := getJSON(t, s.ts.URL+"/game/solwar/event_log?start=yesterday", http.StatusBadRequest)
		if body["ok"] != false {
			t.Errorf("ok = %v, want false", body["ok"])
		}
	})
}

func TestWatchStreamsEvents(t *testing.T) {
	s := newTestServer(t)
	authcode := s.seed(t)

	wsURL := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/game/solwar/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing watch socket: %v", err)
	}
	defer conn.Close()

	// Trigger a burn after the subscription is live.
	order := url.QueryEscape(`{"task":"burn","args":{"a":[100,0,0]}}`)
	getJSON(t, s.ts.URL+"/game/solwar/add_order?vessel=endurance&order="+order+
		"&authcode="+authcode, http.StatusOK)
	s.clock.advance(time.Hour)
	getJSON(t, s.ts.URL+"/game/solwar/status", http.StatusOK)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Game  string      `json:"game"`
		Event event.Event `json:"event"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading watch message: %v", err)
	}
	if msg.Game != "solwar" || msg.Event.Type != event.BurnEvent {
		t.Errorf("watch message = (%q, %v), want (solwar, burn)", msg.Game, msg.Event.Type)
	}
}

func TestWatchUnknownGame(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.ts.URL + "/game/nowhere/watch")
	if err != nil {
		t.Fatalf("GET watch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("watch on unknown game status = %d, want 404", resp.StatusCode)
	}
}
