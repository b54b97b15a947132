package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KirkDiggler/hotdice/internal/common/logging"
	"github.com/KirkDiggler/hotdice/internal/reconcile"
	"github.com/KirkDiggler/hotdice/internal/services/game"
	"github.com/KirkDiggler/hotdice/internal/services/live"
	"github.com/KirkDiggler/hotdice/internal/services/messaging"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	ErrNilConfig           = errors.New("config cannot be nil")
	ErrNilGameService      = errors.New("game service cannot be nil")
	ErrNilMessagingService = errors.New("messaging service cannot be nil")
	ErrNilFeed             = errors.New("feed cannot be nil")
)

// Feed is the part of live.Hub the API uses
type Feed interface {
	Watch(ctx context.Context, lobbyID string, fn live.Listener) (func(), error)
	View(lobbyID string) (reconcile.View, error)
}

// Config holds configuration for the HTTP API
type Config struct {
	GameService      game.Service
	MessagingService messaging.Service
	Feed             Feed

	// Gatherer backs /metrics; nil leaves the route out
	Gatherer prometheus.Gatherer

	// AllowedOrigin restricts websocket upgrades; empty allows any origin
	AllowedOrigin string

	Logger *zap.Logger
}

// Handler serves lobby state, turn actions and the live event feed
type Handler struct {
	gameService      game.Service
	messagingService messaging.Service
	feed             Feed
	gatherer         prometheus.Gatherer
	allowedOrigin    string
	logger           *zap.Logger
}

// New creates a Handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.GameService == nil {
		return nil, ErrNilGameService
	}
	if cfg.MessagingService == nil {
		return nil, ErrNilMessagingService
	}
	if cfg.Feed == nil {
		return nil, ErrNilFeed
	}

	return &Handler{
		gameService:      cfg.GameService,
		messagingService: cfg.MessagingService,
		feed:             cfg.Feed,
		gatherer:         cfg.Gatherer,
		allowedOrigin:    cfg.AllowedOrigin,
		logger:           logging.OrNop(cfg.Logger),
	}, nil
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.healthz)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", h.createLobby)
		r.Get("/code/{code}", h.getLobbyByCode)

		r.Route("/{lobbyID}", func(r chi.Router) {
			r.Get("/", h.getLobby)
			r.Delete("/", h.deleteLobby)
			r.Post("/join", h.joinLobby)
			r.Post("/leave", h.leaveLobby)
			r.Post("/actions/{action}", h.act)
			r.Get("/leaderboard", h.leaderboard)
			r.Get("/history", h.history)
			r.Get("/ws", h.watch)
		})
	})
	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type errorResponse struct {
	Reason  messaging.Reason `json:"reason"`
	Message string           `json:"message"`
}

// fail writes a game service error as a reason code and player-facing text
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	out, msgErr := h.messagingService.GetErrorMessage(r.Context(), &messaging.GetErrorMessageInput{
		Err:           err,
		PreferredTone: messaging.ToneNeutral,
	})
	if msgErr != nil {
		h.logger.Error("failed to build error message", zap.Error(msgErr))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	status := statusFor(out.Reason)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Reason: out.Reason, Message: out.Message})
}

func statusFor(reason messaging.Reason) int {
	switch reason {
	case messaging.ReasonLobbyNotFound, messaging.ReasonNotInLobby:
		return http.StatusNotFound
	case messaging.ReasonInvalidInput:
		return http.StatusBadRequest
	case messaging.ReasonNotYourTurn, messaging.ReasonNotHost:
		return http.StatusForbidden
	case messaging.ReasonInternal:
		return http.StatusInternalServerError
	}
	return http.StatusConflict
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body; an empty body leaves v unchanged
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(game.ErrInvalidInput, err)
	}
	return nil
}
