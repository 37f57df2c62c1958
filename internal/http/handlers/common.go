package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/capsule-closet/capsule-be/internal/credits"
	"github.com/capsule-closet/capsule-be/internal/middleware"
	"github.com/capsule-closet/capsule-be/internal/models/dto"
)

// Protect wraps a handler with authentication.
type Protect func(http.Handler) http.Handler

const maxBodyBytes = 16 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func userID(r *http.Request) int64 {
	id, _ := middleware.UserID(r.Context())
	return id
}

func creditStatus(s *credits.Session) dto.CreditStatus {
	tier := s.Tier()
	return dto.CreditStatus{
		Tier:             tier,
		CreditsRemaining: s.Credits(),
		Allotment:        tier.Allotment(),
		Busy:             s.Busy(),
	}
}
