package network

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/logging"
	"github.com/ZDSRepositories/dotwar/pkg/validation"
)

const (
	watchWriteWait  = 10 * time.Second
	watchPingPeriod = 30 * time.Second
	// Slow consumers are dropped rather than allowed to stall the
	// broadcast path.
	watchSendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// watchMessage is one streamed simulation event.
type watchMessage struct {
	Game  string      `json:"game"`
	Event event.Event `json:"event"`
}

type watchSubscriber struct {
	game string
	send chan watchMessage
}

// watchHub fans simulation events out to the websocket clients watching
// each game.
type watchHub struct {
	logger *logging.Logger

	mu     sync.Mutex
	subs   map[*watchSubscriber]struct{}
	closed bool
}

func newWatchHub(logger *logging.Logger) *watchHub {
	return &watchHub{
		logger: logger,
		subs:   make(map[*watchSubscriber]struct{}),
	}
}

// Broadcast delivers an event to every subscriber watching the game. It
// satisfies event.Handler, so a hub can subscribe directly to a Bus.
// Subscribers whose buffers are full miss the event.
func (h *watchHub) Broadcast(game string, ev event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.game != game {
			continue
		}
		select {
		case sub.send <- watchMessage{Game: game, Event: ev}:
		default:
		}
	}
}

func (h *watchHub) subscribe(game string) *watchSubscriber {
	sub := &watchSubscriber{
		game: game,
		send: make(chan watchMessage, watchSendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.send)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *watchHub) unsubscribe(sub *watchSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// closeAll drops every subscriber, ending their write pumps. Called on
// server shutdown.
func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// handleWatch upgrades the connection and streams the game's simulation
// events until the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateName(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	// Catching the game up before upgrading both verifies it exists and
	// means the stream only carries events from now on.
	if _, err := s.registry.GetStatus(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "game", name, "error", err)
		return
	}

	sub := s.hub.subscribe(name)
	defer s.hub.unsubscribe(sub)
	go s.watchWritePump(conn, sub)

	// Read pump: the client sends nothing meaningful; reading until error
	// detects disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) watchWritePump(conn *websocket.Conn, sub *watchSubscriber) {
	ticker := time.NewTicker(watchPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
