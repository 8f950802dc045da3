package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"negotiation-lab/internal/mechanism"
)

const (
	wsSendBuffer   = 256
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadTimeout  = 60 * time.Second
)

// streamEvent is the JSON message sent to websocket subscribers.
type streamEvent struct {
	SessionID    string  `json:"session_id"`
	Step         int     `json:"step"`
	RelativeTime float64 `json:"relative_time"`
	Proposer     string  `json:"proposer"`
	Response     string  `json:"response"`
	Offer        string  `json:"offer,omitempty"`
}

func newStreamEvent(sessionID string, ev *mechanism.Event) streamEvent {
	return streamEvent{
		SessionID:    sessionID,
		Step:         ev.Step,
		RelativeTime: ev.RelativeTime,
		Proposer:     ev.Proposer,
		Response:     string(ev.Response.Type),
		Offer:        ev.Response.Outcome.Key(),
	}
}

// subscriber is one websocket connection. An empty sessionID receives
// every session.
type subscriber struct {
	conn      *websocket.Conn
	send      chan streamEvent
	sessionID string
}

// hub fans mechanism events out to websocket subscribers. Slow subscribers
// lose events instead of blocking sessions.
type hub struct {
	upgrader websocket.Upgrader
	gauge    prometheus.Gauge // optional
	logger   *log.Logger

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func newHub(gauge prometheus.Gauge, logger *log.Logger) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		gauge:  gauge,
		logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// watch is a tournament.WatchFunc.
func (h *hub) watch(sessionID string, ev *mechanism.Event) {
	h.broadcast(newStreamEvent(sessionID, ev))
}

func (h *hub) broadcast(ev streamEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.sessionID != "" && s.sessionID != ev.SessionID {
			continue
		}
		select {
		case s.send <- ev:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *hub) register(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.Inc()
	}
}

func (h *hub) unregister(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	h.mu.Unlock()
	if ok {
		close(s.send)
		if h.gauge != nil {
			h.gauge.Dec()
		}
	}
}

// serveWS upgrades the request and streams events until the client goes
// away. ?session_id= restricts the stream to one session.
func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade: %v", err)
		return
	}

	s := &subscriber{
		conn:      conn,
		send:      make(chan streamEvent, wsSendBuffer),
		sessionID: r.URL.Query().Get("session_id"),
	}
	h.register(s)

	go h.writeLoop(s)
	h.readLoop(s)
}

// readLoop discards client messages and unregisters on disconnect.
func (h *hub) readLoop(s *subscriber) {
	defer h.unregister(s)

	s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop owns all writes to the connection.
func (h *hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
