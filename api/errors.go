package api

import (
	"errors"
	"net/http"

	"github.com/stellar/stellar-turrets/turret"
)

type errorResponse struct {
	Message string `json:"message"`
	// Turret and Cost are set on payment failures so the client can retry
	// with the exact fee.
	Turret string `json:"turret,omitempty"`
	Cost   string `json:"cost,omitempty"`
}

func statusFor(kind turret.Kind) int {
	switch kind {
	case turret.KindValidation:
		return http.StatusBadRequest
	case turret.KindPayment:
		return http.StatusPaymentRequired
	case turret.KindForbidden:
		return http.StatusForbidden
	case turret.KindNotFound:
		return http.StatusNotFound
	case turret.KindConflict:
		return http.StatusConflict
	case turret.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a structured error onto the wire. Heal and upload
// rejections are logged with their reason; they are never silently swallowed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Message: "internal error"}
	status := http.StatusInternalServerError

	var te *turret.Error
	if errors.As(err, &te) {
		status = statusFor(te.Kind)
		resp.Message = te.Message
		if te.Kind == turret.KindPayment {
			resp.Turret = s.cfg.TurretAddress
			resp.Cost = te.Cost
		}
	}

	s.log.Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Err(err).
		Msg("request rejected")

	writeJSON(w, status, resp)
}
