package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/http/respond"
	"github.com/capsule-closet/capsule-be/internal/models/dto"
)

// CreditsHandler exposes the credit status and store purchase flows.
type CreditsHandler struct {
	sessions *credits.Sessions
	sync     *credits.Synchronizer
	logger   *zap.Logger
}

// NewCreditsHandler constructs the handler.
func NewCreditsHandler(sessions *credits.Sessions, sync *credits.Synchronizer, logger *zap.Logger) *CreditsHandler {
	return &CreditsHandler{sessions: sessions, sync: sync, logger: logger.Named("credits_http")}
}

// Register attaches credit routes to the mux.
func (h *CreditsHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("/credits", protect(http.HandlerFunc(h.handleStatus)))
	mux.Handle("/credits/sync", protect(http.HandlerFunc(h.handleSync)))
	mux.Handle("/credits/restore", protect(http.HandlerFunc(h.handleSync)))
	mux.Handle("/credits/purchase", protect(http.HandlerFunc(h.handlePurchase)))
}

func (h *CreditsHandler) session(w http.ResponseWriter, r *http.Request) (*credits.Session, bool) {
	s, err := h.sessions.Get(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("load session failed", zap.Int64("user_id", userID(r)), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load credits")
		return nil, false
	}
	return s, true
}

func (h *CreditsHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := h.sync.CheckMonthlyReset(r.Context(), s); err != nil {
		h.logger.Error("monthly reset check failed", zap.Int64("user_id", s.UserID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to refresh credits")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", creditStatus(s))
}

func (h *CreditsHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, changed, err := h.sync.SyncFromSource(r.Context(), s)
	if err != nil {
		h.logger.Warn("entitlement sync failed", zap.Int64("user_id", s.UserID), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "failed to sync subscription status")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.SyncResponse{CreditStatus: creditStatus(s), Changed: changed})
}

func (h *CreditsHandler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		respond.Error(w, http.StatusBadRequest, "product_id is required")
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.sync.Purchase(r.Context(), s, productID); err != nil {
		h.logger.Warn("purchase failed", zap.Int64("user_id", s.UserID), zap.String("product_id", productID), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "failed to apply purchase")
		return
	}
	respond.JSON(w, http.StatusOK, "purchase applied", creditStatus(s))
}
