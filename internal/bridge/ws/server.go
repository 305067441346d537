package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/studyfrog/core/internal/dispatch"
)

// Server is a tiny HTTP surface in front of a Hub: websocket upgrades,
// a health probe, and a connection-count stats endpoint. Routing only —
// no view assembly, which stays an out-of-core collaborator per §1.
type Server struct {
	hub    *Hub
	router *mux.Router
}

// NewServer builds the route table for hub.
func NewServer(hub *Hub) *Server {
	s := &Server{hub: hub, router: mux.NewRouter()}
	s.router.HandleFunc("/ws", hub.ServeWS)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"connected_clients": s.hub.ClientCount()})
}

// SubscribeAll rebroadcasts every event name in events onto the hub. A
// bridged event's payload is forwarded whole, not reshaped — the bridge
// is a transport, not a feature (see SPEC_FULL.md §13).
func SubscribeAll(d *dispatch.Dispatcher, hub *Hub, events ...string) {
	for _, event := range events {
		event := event
		d.Subscribe(event, func(payload map[string]any) (any, error) {
			hub.Broadcast(event, payload)
			return true, nil
		}, dispatch.Global, true, -100)
	}
}
