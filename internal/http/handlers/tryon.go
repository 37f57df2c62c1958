package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/http/respond"
	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/models/dto"
	"github.com/capsule-closet/capsule-be/internal/storage"
	"github.com/capsule-closet/capsule-be/internal/tryon"
)

// Renderer produces a try-on image URL.
type Renderer interface {
	Render(ctx context.Context, userID int64, item models.ClothingItem, person tryon.Image) (string, error)
}

// ItemFinder looks up a garment owned by a user.
type ItemFinder interface {
	Item(ctx context.Context, userID int64, itemID string) (models.ClothingItem, error)
}

// TryOnHandler runs paid try-on generations through the credit manager.
type TryOnHandler struct {
	manager  *credits.Manager
	sessions *credits.Sessions
	sync     *credits.Synchronizer
	items    ItemFinder
	renderer Renderer
	logger   *zap.Logger
}

// NewTryOnHandler constructs the handler.
func NewTryOnHandler(manager *credits.Manager, sessions *credits.Sessions, sync *credits.Synchronizer, items ItemFinder, renderer Renderer, logger *zap.Logger) *TryOnHandler {
	return &TryOnHandler{
		manager:  manager,
		sessions: sessions,
		sync:     sync,
		items:    items,
		renderer: renderer,
		logger:   logger.Named("tryon_http"),
	}
}

// Register attaches the try-on route to the mux.
func (h *TryOnHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("/tryon", protect(http.HandlerFunc(h.handle)))
}

func (h *TryOnHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.TryOnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	photo, err := decodePhoto(req.Photo)
	if err != nil || strings.TrimSpace(req.ItemID) == "" {
		respond.Error(w, http.StatusBadRequest, "item_id and a base64 photo are required")
		return
	}

	uid := userID(r)
	item, err := h.items.Item(r.Context(), uid, req.ItemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "item not found")
			return
		}
		h.logger.Error("load item failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load item")
		return
	}
	session, err := h.sessions.Get(r.Context(), uid)
	if err != nil {
		h.logger.Error("load session failed", zap.Int64("user_id", uid), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load credits")
		return
	}
	// Resets and purchases may have landed elsewhere since the session was
	// cached. A busy session belongs to the in-flight transaction.
	if !session.Busy() {
		if _, err := h.sync.CheckMonthlyReset(r.Context(), session); err != nil {
			h.logger.Warn("credit refresh failed, using cached balance", zap.Int64("user_id", uid), zap.Error(err))
		}
	}

	var imageURL string
	res := h.manager.Use(r.Context(), session, models.GenerationTryOn, func(ctx context.Context) error {
		url, err := h.renderer.Render(ctx, uid, item, photo)
		imageURL = url
		return err
	})

	switch res.Outcome {
	case credits.OutcomeCompleted:
		respond.JSON(w, http.StatusOK, "try-on generated", dto.TryOnResponse{
			ImageURL: imageURL,
			Credits:  creditStatus(session),
		})
	case credits.OutcomeBusy:
		respond.Error(w, http.StatusConflict, "a generation is already in progress")
	case credits.OutcomeInsufficientCredits:
		respond.Error(w, http.StatusPaymentRequired, "no credits left, upgrade or buy a booster")
	default:
		respond.Error(w, http.StatusBadGateway, "generation failed, your credit was refunded")
	}
}

// decodePhoto accepts raw base64 or a data URL.
func decodePhoto(raw string) (tryon.Image, error) {
	raw = strings.TrimSpace(raw)
	mimeType := ""
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return tryon.Image{}, errors.New("malformed data url")
		}
		mimeType, _, _ = strings.Cut(header, ";")
		raw = payload
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return tryon.Image{}, err
	}
	if len(data) == 0 {
		return tryon.Image{}, errors.New("empty photo")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return tryon.Image{Data: data, MIMEType: mimeType}, nil
}
