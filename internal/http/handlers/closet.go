package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/http/respond"
	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/models/dto"
	"github.com/capsule-closet/capsule-be/internal/storage"
	"github.com/capsule-closet/capsule-be/internal/wardrobe"
)

// ClosetHandler serves items, wear recording, stats, saved outfits and
// outfit suggestions.
type ClosetHandler struct {
	wardrobe *wardrobe.Service
	sessions *credits.Sessions
	logger   *zap.Logger
}

// NewClosetHandler constructs the handler.
func NewClosetHandler(w *wardrobe.Service, sessions *credits.Sessions, logger *zap.Logger) *ClosetHandler {
	return &ClosetHandler{wardrobe: w, sessions: sessions, logger: logger.Named("closet")}
}

// Register attaches closet routes to the mux.
func (h *ClosetHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("/items", protect(http.HandlerFunc(h.handleItems)))
	mux.Handle("/items/wear", protect(http.HandlerFunc(h.handleWear)))
	mux.Handle("/items/stats", protect(http.HandlerFunc(h.handleStats)))
	mux.Handle("/outfits", protect(http.HandlerFunc(h.handleOutfits)))
	mux.Handle("/outfits/suggestions", protect(http.HandlerFunc(h.handleSuggestions)))
}

func (h *ClosetHandler) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := h.wardrobe.List(r.Context(), userID(r))
		if err != nil {
			h.logger.Error("list items failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to list items")
			return
		}
		if items == nil {
			items = []models.ClothingItem{}
		}
		respond.JSON(w, http.StatusOK, "ok", items)
	case http.MethodPost:
		h.createItem(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *ClosetHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	in, err := newItemFromRequest(userID(r), req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.sessions.Get(r.Context(), in.UserID)
	if err != nil {
		h.logger.Error("load session failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	item, err := h.wardrobe.AddItem(r.Context(), session.Tier(), in)
	if err != nil {
		if errors.Is(err, wardrobe.ErrItemLimit) {
			respond.Error(w, http.StatusForbidden, "free tier item limit reached, upgrade to add more")
			return
		}
		h.logger.Error("create item failed", zap.Int64("user_id", in.UserID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	respond.JSON(w, http.StatusCreated, "item created", item)
}

func newItemFromRequest(uid int64, req dto.CreateItemRequest) (wardrobe.NewItem, error) {
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return wardrobe.NewItem{}, err
	}
	occasions := make([]models.Occasion, 0, len(req.Occasions))
	for _, raw := range req.Occasions {
		o, err := models.ParseOccasion(raw)
		if err != nil {
			return wardrobe.NewItem{}, err
		}
		occasions = append(occasions, o)
	}
	colors := make([]string, 0, len(req.Colors))
	for _, c := range req.Colors {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	return wardrobe.NewItem{
		UserID:    uid,
		ImageURL:  strings.TrimSpace(req.ImageURL),
		Category:  category,
		Colors:    colors,
		Occasions: occasions,
		Size:      req.Size,
		Price:     req.Price,
	}, nil
}

func (h *ClosetHandler) handleWear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.WearRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(req.ItemIDs) == 0 {
		respond.Error(w, http.StatusBadRequest, "item_ids is required")
		return
	}
	items, err := h.wardrobe.RecordWear(r.Context(), userID(r), req.ItemIDs)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "item not found")
			return
		}
		h.logger.Error("record wear failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to record wear")
		return
	}
	respond.JSON(w, http.StatusOK, "wear recorded", items)
}

func (h *ClosetHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := h.wardrobe.Stats(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("closet stats failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", stats)
}

func (h *ClosetHandler) handleOutfits(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		outfits, err := h.wardrobe.Outfits(r.Context(), userID(r))
		if err != nil {
			h.logger.Error("list outfits failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to list outfits")
			return
		}
		if outfits == nil {
			outfits = []models.SavedOutfit{}
		}
		respond.JSON(w, http.StatusOK, "ok", outfits)
	case http.MethodPost:
		h.saveOutfit(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *ClosetHandler) saveOutfit(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveOutfitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	var occasion models.Occasion
	if strings.TrimSpace(req.Occasion) != "" {
		o, err := models.ParseOccasion(req.Occasion)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		occasion = o
	}
	saved, err := h.wardrobe.SaveOutfit(r.Context(), userID(r), req.ItemIDs, occasion)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, "outfit saved", saved)
	case errors.Is(err, wardrobe.ErrEmptyOutfit):
		respond.Error(w, http.StatusBadRequest, "item_ids is required")
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "item not found")
	default:
		h.logger.Error("save outfit failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to save outfit")
	}
}

func (h *ClosetHandler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var occasion models.Occasion
	if raw := r.URL.Query().Get("occasion"); strings.TrimSpace(raw) != "" {
		o, err := models.ParseOccasion(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		occasion = o
	}
	suggestions, err := h.wardrobe.Suggest(r.Context(), userID(r), occasion)
	if err != nil {
		h.logger.Error("suggest outfits failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to suggest outfits")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.SuggestionsResponse{
		Occasion:    string(occasion),
		Suggestions: suggestions,
	})
}
