package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/auth"
	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// API exposes the quiz game over REST plus a websocket event stream.
type API struct {
	auth     *auth.Service
	packs    *app.PackService
	games    *app.GameService
	players  *app.PlayerService
	upgrader websocket.Upgrader
}

func NewAPI(authService *auth.Service, packs *app.PackService, games *app.GameService, players *app.PlayerService) *API {
	return &API{
		auth:    authService,
		packs:   packs,
		games:   games,
		players: players,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts all routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/signin", a.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", a.handleSignOut)
	mux.HandleFunc("GET /api/auth/me", a.handleMe)
	mux.HandleFunc("GET /api/auth/profile", a.handleProfile)
	mux.HandleFunc("GET /api/auth/oauth/{provider}", a.handleOAuthBegin)
	mux.HandleFunc("GET /api/auth/oauth/{provider}/callback", a.handleOAuthCallback)

	mux.HandleFunc("GET /api/packs", a.handleListPacks)
	mux.HandleFunc("POST /api/packs", a.handleCreatePack)
	mux.HandleFunc("GET /api/packs/{id}", a.handleGetPack)
	mux.HandleFunc("DELETE /api/packs/{id}", a.handleDeletePack)

	mux.HandleFunc("POST /api/games", a.handleCreateGame)
	mux.HandleFunc("GET /api/games/code/{code}", a.handleFindByCode)
	mux.HandleFunc("POST /api/games/{id}/start", a.handleStartGame)
	mux.HandleFunc("POST /api/games/{id}/next", a.handleNextQuestion)
	mux.HandleFunc("POST /api/games/{id}/finish", a.handleFinishGame)
	mux.HandleFunc("POST /api/games/{id}/join", a.handleJoin)
	mux.HandleFunc("POST /api/games/{id}/answers", a.handleSubmitAnswer)
	mux.HandleFunc("GET /api/games/{id}/leaderboard", a.handleLeaderboard)

	mux.HandleFunc("GET /ws", a.handleEventStream)
}

// --- auth ---

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	account, err := a.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	token, account, err := a.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "account": account})
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	if err := a.auth.SignOut(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	profile, err := a.auth.CurrentProfile(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleOAuthBegin(w http.ResponseWriter, r *http.Request) {
	url, state, err := a.auth.BeginProviderSignIn(r.PathValue("provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "state": state})
}

func (a *API) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	token, account, err := a.auth.CompleteProviderSignIn(r.Context(), r.PathValue("provider"), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "account": account})
}

// --- packs ---

func (a *API) handleListPacks(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	packs, err := a.packs.ListMyPacks(r.Context(), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packs)
}

func (a *API) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	var req app.CreatePackInput
	if !decode(w, r, &req) {
		return
	}
	pack, err := a.packs.CreatePack(r.Context(), account.ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pack)
}

func (a *API) handleGetPack(w http.ResponseWriter, r *http.Request) {
	pack, err := a.packs.GetPackWithQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pack)
}

func (a *API) handleDeletePack(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAccount(w, r); !ok {
		return
	}
	if err := a.packs.DeletePack(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- games ---

func (a *API) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	account, ok := a.requireAccount(w, r)
	if !ok {
		return
	}
	var req struct {
		QuizPackID string `json:"quiz_pack_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	game, err := a.games.CreateGame(r.Context(), account.ID, req.QuizPackID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (a *API) handleFindByCode(w http.ResponseWriter, r *http.Request) {
	game, err := a.games.FindByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleStartGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAccount(w, r); !ok {
		return
	}
	game, err := a.games.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAccount(w, r); !ok {
		return
	}
	var req struct {
		QuestionIndex int `json:"question_index"`
	}
	if !decode(w, r, &req) {
		return
	}
	game, err := a.games.NextQuestion(r.Context(), r.PathValue("id"), req.QuestionIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleFinishGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAccount(w, r); !ok {
		return
	}
	game, err := a.games.Finish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// --- players ---

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if !decode(w, r, &req) {
		return
	}
	player, err := a.players.Join(r.Context(), r.PathValue("id"), req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (a *API) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID       string `json:"player_id"`
		QuestionID     string `json:"question_id"`
		SelectedAnswer string `json:"selected_answer"`
		TimeTakenMs    int    `json:"time_taken_ms"`
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := a.players.SubmitAnswer(r.Context(), r.PathValue("id"), req.PlayerID, req.QuestionID, req.SelectedAnswer, req.TimeTakenMs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := a.players.Leaderboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// --- helpers ---

func (a *API) requireAccount(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return domain.Account{}, false
	}
	account, err := a.auth.CurrentAccount(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return domain.Account{}, false
	}
	return account, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// statusFor maps domain sentinels to HTTP codes; everything else is a 500.
// The underlying error text passes through untouched.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrPackNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, auth.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
