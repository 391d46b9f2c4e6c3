package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Harshkesharwani789/talk-space/model"
	"github.com/Harshkesharwani789/talk-space/storage"
)

const (
	defaultShutdownDeadline = 10 * time.Second
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

type (
	// Store is the persistence collaborator. The relay never sees it.
	Store interface {
		CreateUser(ctx context.Context, user model.User) error
		UserByEmail(ctx context.Context, email string) (*model.User, error)
		UserByID(ctx context.Context, userID string) (*model.User, error)
		CreateChat(ctx context.Context, chat model.Chat) error
		ChatsForUser(ctx context.Context, userID string) ([]model.Chat, error)
		AppendMessage(ctx context.Context, msg model.Message) error
		MessagesByChat(ctx context.Context, chatID string) ([]model.Message, error)
	}

	// AuthService is the identity collaborator.
	AuthService interface {
		Register(ctx context.Context, name, email, password string) (*model.User, string, error)
		Login(ctx context.Context, email, password string) (*model.User, string, error)
		Verify(token string) (string, error)
	}

	Config struct {
		Logger     *zerolog.Logger
		Store      Store
		Auth       AuthService
		ListenAddr string
	}

	Server struct {
		logger zerolog.Logger
		store  Store
		auth   AuthService
		*http.Server
	}
)

type GenericResponse struct {
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger: cfg.Logger.With().Str("component", "api-server").Logger(),
		store:  cfg.Store,
		auth:   cfg.Auth,
	}

	r := http.NewServeMux()
	r.HandleFunc("GET /{$}", srv.health)
	r.HandleFunc("POST /auth/register", srv.register)
	r.HandleFunc("POST /auth/login", srv.login)
	r.HandleFunc("GET /chat", srv.authenticated(srv.listChats))
	r.HandleFunc("POST /chat", srv.authenticated(srv.createChat))
	r.HandleFunc("GET /message/{chatID}", srv.authenticated(srv.listMessages))
	r.HandleFunc("POST /message", srv.authenticated(srv.postMessage))
	r.HandleFunc("OPTIONS /", corsHandler)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return srv
}

func corsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("talk-space server is running"))
}

type ctxKey int

const ctxKeyUserID ctxKey = iota

// authenticated wraps a handler with bearer token verification and puts
// the token subject into the request context.
func (srv *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, &GenericResponse{Error: "missing bearer token"})
			return
		}
		userID, err := srv.auth.Verify(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, &GenericResponse{Error: "invalid token"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, userID)))
	}
}

func requestUserID(r *http.Request) string {
	userID, _ := r.Context().Value(ctxKeyUserID).(string)
	return userID
}

type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (srv *Server) register(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, &GenericResponse{Error: "name, email and password are required"})
		return
	}

	user, token, err := srv.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			writeJSON(w, http.StatusConflict, &GenericResponse{Error: err.Error()})
			return
		}
		srv.logger.Error().Err(err).Msg("registration failed")
		writeJSON(w, http.StatusInternalServerError, &GenericResponse{Error: "registration failed"})
		return
	}
	writeJSON(w, http.StatusCreated, &authResponse{User: user, Token: token})
}

func (srv *Server) login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, token, err := srv.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, &GenericResponse{Error: "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, &authResponse{User: user, Token: token})
}

type createChatRequest struct {
	Name    string   `json:"name,omitempty"`
	UserIDs []string `json:"users"`
}

func (srv *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.UserIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, &GenericResponse{Error: "chat needs at least one other user"})
		return
	}

	chat := model.Chat{
		ID:        newID(),
		Name:      req.Name,
		UserIDs:   withUser(req.UserIDs, requestUserID(r)),
		CreatedAt: time.Now().UTC(),
	}
	if err := srv.store.CreateChat(r.Context(), chat); err != nil {
		srv.logger.Error().Err(err).Msg("failed to create chat")
		writeJSON(w, http.StatusInternalServerError, &GenericResponse{Error: "failed to create chat"})
		return
	}
	writeJSON(w, http.StatusCreated, &GenericResponse{Data: chat})
}

func (srv *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := srv.store.ChatsForUser(r.Context(), requestUserID(r))
	if err != nil {
		srv.logger.Error().Err(err).Msg("failed to list chats")
		writeJSON(w, http.StatusInternalServerError, &GenericResponse{Error: "failed to list chats"})
		return
	}
	writeJSON(w, http.StatusOK, &GenericResponse{Data: chats})
}

type postMessageRequest struct {
	ChatID  string `json:"chat"`
	Content string `json:"content"`
}

func (srv *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ChatID == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, &GenericResponse{Error: "chat and content are required"})
		return
	}

	msg := model.Message{
		ID:        newID(),
		ChatID:    req.ChatID,
		SenderID:  requestUserID(r),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := srv.store.AppendMessage(r.Context(), msg); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, &GenericResponse{Error: "chat not found"})
			return
		}
		srv.logger.Error().Err(err).Msg("failed to store message")
		writeJSON(w, http.StatusInternalServerError, &GenericResponse{Error: "failed to store message"})
		return
	}
	writeJSON(w, http.StatusCreated, &GenericResponse{Data: msg})
}

func (srv *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chatID")
	if chatID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	msgs, err := srv.store.MessagesByChat(r.Context(), chatID)
	if err != nil {
		srv.logger.Error().Err(err).Msg("failed to list messages")
		writeJSON(w, http.StatusInternalServerError, &GenericResponse{Error: "failed to list messages"})
		return
	}
	writeJSON(w, http.StatusOK, &GenericResponse{Data: msgs})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, _ := io.ReadAll(r.Body)
	defer func() {
		_ = r.Body.Close()
	}()
	if err := json.Unmarshal(body, dst); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeBytes(w, code, b)
}

func writeBytes(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func withUser(userIDs []string, userID string) []string {
	for _, id := range userIDs {
		if id == userID {
			return userIDs
		}
	}
	return append(userIDs, userID)
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	hErr := make(chan error)
	go func() {
		hErr <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-hErr:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
}
