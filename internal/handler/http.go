package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/typingmaster/backend/internal/auth"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/service"
	"github.com/typingmaster/backend/internal/websocket"
)

// Handler provides HTTP handlers for the typing practice API
type Handler struct {
	users        *service.UserService
	sessions     *service.SessionService
	achievements *service.AchievementService
	leaderboard  *service.LeaderboardService
	lessons      service.LessonStore
	tokens       *auth.TokenManager
	hub          *websocket.Hub
	logger       *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	users *service.UserService,
	sessions *service.SessionService,
	achievements *service.AchievementService,
	leaderboard *service.LeaderboardService,
	lessons service.LessonStore,
	tokens *auth.TokenManager,
	hub *websocket.Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:        users,
		sessions:     sessions,
		achievements: achievements,
		leaderboard:  leaderboard,
		lessons:      lessons,
		tokens:       tokens,
		hub:          hub,
		logger:       logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Public reads
		r.Get("/leaderboards/{period}", h.GetLeaderboard)
		r.Get("/leaderboards/{period}/stats", h.GetLeaderboardStats)
		r.Get("/achievements", h.ListAchievements)
		r.Get("/lessons", h.ListLessons)
		r.Get("/lessons/{lessonID}", h.GetLesson)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)

			r.Post("/sessions", h.SubmitSession)
			r.Get("/sessions", h.ListSessions)
			r.Get("/users/me", h.GetMe)
			r.Get("/achievements/me", h.ListMyAchievements)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type contextKey string

const userIDKey contextKey = "userID"

// authMiddleware verifies the bearer token and stores the user ID in the
// request context
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFrom returns the authenticated user ID from the request context
func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	subscribers := make(map[string]int, len(domain.Periods))
	for _, period := range domain.Periods {
		subscribers[string(period)] = h.hub.GetSubscriberCount(string(period))
	}

	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
		"subscribers":       subscribers,
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// Register handles account creation
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	resp, err := h.users.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			h.writeError(w, http.StatusConflict, err)
			return
		}
		if errors.Is(err, domain.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to register user", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    resp,
	})
}

// Login handles credential verification and token issuance
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	resp, err := h.users.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, err)
			return
		}
		h.logger.Error("failed to log in user", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, resp)
}

// GetMe returns the authenticated user's profile and statistics
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), userIDFrom(r))
	if err != nil {
		if domain.IsNotFoundError(err) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get user", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, user)
}

// SubmitSession handles practice session submission
func (h *Handler) SubmitSession(w http.ResponseWriter, r *http.Request) {
	var sub domain.SessionSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	// The session always belongs to the authenticated user
	sub.UserID = userIDFrom(r)

	sess, err := h.sessions.Submit(r.Context(), sub)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSession) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to submit session", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    sess,
	})
}

// ListSessions returns the authenticated user's recent sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	sessions, err := h.sessions.History(r.Context(), userIDFrom(r), limit)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, sessions)
}

// GetLeaderboard returns the current standings for a ranking period
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	period, ok := domain.ParsePeriod(chi.URLParam(r, "period"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.leaderboard.Get(r.Context(), period, limit)
	if err != nil {
		h.logger.Error("failed to get leaderboard", "error", err, "period", period)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, entries)
}

// GetLeaderboardStats returns summary statistics for a ranking period
func (h *Handler) GetLeaderboardStats(w http.ResponseWriter, r *http.Request) {
	period, ok := domain.ParsePeriod(chi.URLParam(r, "period"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	stats, err := h.leaderboard.Stats(r.Context(), period)
	if err != nil {
		h.logger.Error("failed to get leaderboard stats", "error", err, "period", period)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, stats)
}

// ListAchievements returns the achievement catalog
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.achievements.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list achievements", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, achievements)
}

// ListMyAchievements returns the achievements unlocked by the
// authenticated user
func (h *Handler) ListMyAchievements(w http.ResponseWriter, r *http.Request) {
	unlocked, err := h.achievements.ListForUser(r.Context(), userIDFrom(r))
	if err != nil {
		h.logger.Error("failed to list user achievements", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, unlocked)
}

// ListLessons returns all available lessons
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.ListLessons(r.Context())
	if err != nil {
		h.logger.Error("failed to list lessons", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, lessons)
}

// GetLesson returns a lesson by ID
func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	if lessonID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	lesson, err := h.lessons.GetLesson(r.Context(), lessonID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get lesson", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, lesson)
}
