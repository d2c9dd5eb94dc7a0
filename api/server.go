package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MorozVladislav/Engine/game/bot"
	"github.com/MorozVladislav/Engine/transport/websocket"
)

// StatusFunc supplies the current run summary.
type StatusFunc func() bot.Status

// Server is the HTTP server backing the visualizer.
type Server struct {
	status StatusFunc
	hub    *websocket.Hub
	router *mux.Router
}

// NewServer creates an API server over a status source and the event hub.
func NewServer(status StatusFunc, hub *websocket.Hub) *Server {
	s := &Server{
		status: status,
		hub:    hub,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.ServeWS)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.status())
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
