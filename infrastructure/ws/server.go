package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/services"
	"chat-core/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server is the HTTP front of the chat core: /ws for the chat stream,
// /login and /register for accounts, /health for probes.
type Server struct {
	log        *slog.Logger
	chat       services.IChatService
	accounts   *services.AuthService
	bufferSize int
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, chat services.IChatService, accounts *services.AuthService, host string, port int, bufferSize int) *Server {
	server := &Server{
		log:        log,
		chat:       chat,
		accounts:   accounts,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/register", s.handleRegister)
	return mux
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("Listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := domain.ConnectionID(uuid.NewString())
	channelSink := sink.NewChannelSink(s.bufferSize)
	session := services.NewChatSession(s.chat, connID, channelSink)

	conn := newConnection(s.log, wsConn, session, channelSink)
	conn.run(r.Context())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userBody struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type authResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token,omitempty"`
	User    *userBody `json:"user,omitempty"`
	Message string    `json:"message,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "malformed request"})
		return
	}

	token, user, err := s.accounts.Login(auth.LoginRequest{Username: body.Username, Password: body.Password})
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, authResponse{Success: false, Message: "invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Token:   token,
		User:    &userBody{ID: user.ID.String(), DisplayName: user.Username},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "malformed request"})
		return
	}

	user, err := s.accounts.Register(auth.RegisterRequest{Username: body.Username, Password: body.Password})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		User:    &userBody{ID: user.ID.String(), DisplayName: user.Username},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
