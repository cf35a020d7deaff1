// Package server exposes the combat engine over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/scenario"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/worker"
)

const maxBodyBytes = 1 << 20

// Server routes requests to a worker pool.
type Server struct {
	pool     *worker.Pool
	logger   *zap.Logger
	upgrader websocket.Upgrader
	router   *mux.Router
}

// New builds the routes.
func New(pool *worker.Pool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pool:     pool,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		router:   mux.NewRouter(),
	}
	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/catalog", s.handleCatalog).Methods(http.MethodGet)
	api.HandleFunc("/compute", s.handleCompute).Methods(http.MethodPost)
	api.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type tagView struct {
	catalog.TagInfo
	Implemented bool `json:"implemented"`
}

type catalogView struct {
	Units    []catalog.Definition `json:"units"`
	Factions []catalog.Faction    `json:"factions"`
	Tags     []tagView            `json:"tags"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.pool.Engine().Catalog()
	reg := s.pool.Engine().Registry()
	view := catalogView{Units: cat.Units(), Factions: cat.Factions()}
	for _, info := range cat.Tags() {
		view.Tags = append(view.Tags, tagView{TagInfo: info, Implemented: reg.Implemented(info.ID)})
	}
	writeJSON(w, http.StatusOK, view)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func errorView(err error) errorBody {
	body := errorBody{Error: err.Error()}
	var inErr *combat.InputError
	if errors.As(err, &inErr) {
		body.Field = inErr.Field
	}
	return body
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var f scenario.File
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	in, err := f.Input()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorView(err))
		return
	}
	out, err := s.pool.Compute(r.Context(), in)
	var inErr *combat.InputError
	switch {
	case errors.As(err, &inErr):
		writeJSON(w, http.StatusBadRequest, errorView(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorView(err))
	case err != nil:
		s.logger.Error("compute", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorView(err))
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message types of the WebSocket protocol.
const (
	MsgCompute  = "compute"
	MsgAccepted = "accepted"
	MsgResult   = "result"
	MsgError    = "error"
)

// ClientMessage is sent by WebSocket clients.
type ClientMessage struct {
	Type string        `json:"type"`
	Data scenario.File `json:"data"`
}

// ServerMessage is sent to WebSocket clients. A result only ever arrives for
// the newest accepted token.
type ServerMessage struct {
	Type   string                    `json:"type"`
	Token  string                    `json:"token,omitempty"`
	Output *combat.CalculationOutput `json:"output,omitempty"`
	Error  string                    `json:"error,omitempty"`
	Field  string                    `json:"field,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade", zap.Error(err))
		return
	}
	log := s.logger.With(zap.String("remote", r.RemoteAddr))
	log.Debug("ws connected")

	var writeMu sync.Mutex
	send := func(m ServerMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(m); err != nil {
			log.Debug("ws write", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	session := s.pool.NewSession(func(res worker.Result) {
		if res.Err != nil {
			e := errorView(res.Err)
			send(ServerMessage{Type: MsgError, Token: res.Token, Error: e.Error, Field: e.Field})
			return
		}
		out := res.Output
		send(ServerMessage{Type: MsgResult, Token: res.Token, Output: &out})
	})
	session.OnAccept(func(token string) {
		send(ServerMessage{Type: MsgAccepted, Token: token})
	})
	defer func() {
		cancel()
		session.Wait()
		_ = conn.Close()
		log.Debug("ws closed", zap.Int("discarded", session.Discarded()))
	}()

	for {
		var m ClientMessage
		if err := conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read", zap.Error(err))
			}
			return
		}
		if m.Type != MsgCompute {
			send(ServerMessage{Type: MsgError, Error: "unknown message type " + m.Type})
			continue
		}
		in, err := m.Data.Input()
		if err != nil {
			e := errorView(err)
			send(ServerMessage{Type: MsgError, Error: e.Error, Field: e.Field})
			continue
		}
		session.Submit(ctx, in)
	}
}
