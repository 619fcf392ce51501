// Package relay streams the conversation's event bus to external consumers
// over websocket. Plotting and stats tooling attach to /events and receive
// every event as one JSON object; a text frame carrying
// {"subscribe": ["agent.status", ...]} narrows the stream.
//
// The relay is a pure event consumer: slow or dead connections are dropped,
// never allowed to back-pressure the bus.
package relay

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/logging"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second

	// subscriberBuffer is each connection's event backlog; events beyond it
	// are dropped for that connection only.
	subscriberBuffer = 256
)

// Server serves the event stream over websocket.
type Server struct {
	bus            *event.Bus
	log            *logging.Logger
	listen         string
	allowedOrigins []string

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
	conns    map[*websocket.Conn]struct{}
}

// New creates a relay server publishing bus onto listen. allowedOrigins
// whitelists cross-origin websocket clients; empty allows same-host only.
func New(bus *event.Bus, log *logging.Logger, listen string, allowedOrigins []string) *Server {
	return &Server{
		bus:            bus,
		log:            log.WithComponent("relay"),
		listen:         listen,
		allowedOrigins: allowedOrigins,
		conns:          make(map[*websocket.Conn]struct{}),
	}
}

// Start binds the listener and serves until ctx is cancelled or Stop is
// called. Start does not block.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	srv := &http.Server{Handler: mux}

	s.mu.Lock()
	s.listener = ln
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("relay serve failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log.Info("relay listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and every live connection. Idempotent.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	// Websocket connections are hijacked and outlive Shutdown; close them
	// explicitly so their read loops return.
	for _, c := range conns {
		_ = c.Close()
	}
}

// handleEvents upgrades the connection, subscribes it to the bus, and pumps
// events through a write loop until either side goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r, s.allowedOrigins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.track(conn)
	defer s.untrack(conn)
	defer conn.Close()

	filter := newTypeFilter()
	events := make(chan event.Event, subscriberBuffer)
	subID := s.bus.SubscribeAll(func(e event.Event) {
		select {
		case events <- e:
		default:
			// This consumer is behind; dropping is its problem, not the
			// bus's.
		}
	})
	defer s.bus.Unsubscribe(subID)

	done := make(chan struct{})
	go s.writeLoop(conn, events, filter, done)
	defer close(done)

	// Read loop: only subscription updates are expected from the client.
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var sub subscribeMessage
		if err := json.Unmarshal(msg, &sub); err != nil {
			continue
		}
		filter.Set(sub.Subscribe)
	}
}

// writeLoop forwards filtered events as JSON with a bounded write deadline.
// A failed or expired write ends the connection.
func (s *Server) writeLoop(conn *websocket.Conn, events <-chan event.Event, filter *typeFilter, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case e := <-events:
			if !filter.Allows(e.EventType()) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(payload(e)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *Server) track(conn *websocket.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// subscribeMessage narrows a connection's stream to the named event types.
type subscribeMessage struct {
	Subscribe []string `json:"subscribe"`
}

// typeFilter is a connection's event type whitelist. Until the client sends
// a subscribe message every type passes.
type typeFilter struct {
	mu    sync.RWMutex
	types map[string]struct{} // nil means all
}

func newTypeFilter() *typeFilter {
	return &typeFilter{}
}

func (f *typeFilter) Allows(eventType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.types == nil {
		return true
	}
	_, ok := f.types[eventType]
	return ok
}

func (f *typeFilter) Set(types []string) {
	next := make(map[string]struct{}, len(types))
	for _, t := range types {
		next[t] = struct{}{}
	}
	f.mu.Lock()
	f.types = next
	f.mu.Unlock()
}

// payload flattens an event into the JSON object sent to consumers: a type
// and timestamp, then the event-specific fields.
func payload(e event.Event) map[string]any {
	out := map[string]any{
		"type": e.EventType(),
		"ts":   e.Timestamp(),
	}
	switch ev := e.(type) {
	case event.StatusEvent:
		out["agent"] = ev.AgentID
		out["activity"] = string(ev.Activity)
		out["status"] = string(ev.Status)
	case event.FloorGrantedEvent:
		out["agent"] = ev.AgentID
		out["interrupt"] = ev.Interrupt
		out["deadline"] = ev.Deadline
	case event.FloorReleasedEvent:
		out["agent"] = ev.AgentID
		out["reason"] = ev.Reason
	case event.FloorCollisionEvent:
		out["winner"] = ev.Winner
		out["loser"] = ev.Loser
	case event.MessageEvent:
		out["from"] = ev.From
		out["to"] = ev.To
		out["seq"] = ev.Seq
		out["text"] = ev.Text
	}
	return out
}

// isOriginAllowed accepts requests without an Origin header, same-host
// origins, and origins on the whitelist.
func isOriginAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	for _, a := range allowed {
		if a == origin || a == u.Host {
			return true
		}
	}
	return false
}
