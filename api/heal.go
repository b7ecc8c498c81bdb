package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar/stellar-turrets/heal"
	"github.com/stellar/stellar-turrets/turret"
)

// healFreshness is the window within which a heal request timestamp must sit,
// on either side of receipt time.
const healFreshness = 5 * time.Minute

type healRequest struct {
	ControlAccountID string `json:"controlAccountId"`
	OldTurretID      string `json:"oldTurretAccountId"`
	NewTurretID      string `json:"newTurretAccountId"`
	TxFunctionHash   string `json:"txFunctionHash"`
	// Timestamp is the requester's clock at request creation, unix seconds.
	Timestamp int64 `json:"timestamp"`
	// UserAccountID optionally names the end user the rotation is run for.
	UserAccountID string `json:"userAccountId,omitempty"`
	// Fee is the requester's offered fee in stroops.
	Fee int64 `json:"fee"`
}

func (s *Server) handleHeal(w http.ResponseWriter, r *http.Request) {
	var req healRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, turret.Wrap(turret.KindValidation, "unreadable heal request body", err))
		return
	}
	if err := s.validateHealRequest(req); err != nil {
		s.metrics.heals.WithLabelValues("rejected").Inc()
		s.writeError(w, r, err)
		return
	}

	result, err := s.healer.Heal(r.Context(), heal.Request{
		ControlAccountID: req.ControlAccountID,
		OldTurretID:      req.OldTurretID,
		NewTurretID:      req.NewTurretID,
		TxFunctionHash:   req.TxFunctionHash,
	})
	if err != nil {
		s.metrics.heals.WithLabelValues("rejected").Inc()
		s.writeError(w, r, err)
		return
	}
	s.metrics.heals.WithLabelValues("signed").Inc()
	writeJSON(w, http.StatusOK, result)
}

// validateHealRequest enforces the interface-level rules before the protocol
// engine sees the request: timestamp freshness, well-formed identifiers, and
// a sane fee.
func (s *Server) validateHealRequest(req healRequest) error {
	ts := time.Unix(req.Timestamp, 0)
	age := s.now().Sub(ts)
	if age > healFreshness || age < -healFreshness {
		return turret.New(turret.KindValidation, "heal request timestamp is outside the freshness window")
	}

	if err := turret.CheckAccountID("controlAccountId", req.ControlAccountID); err != nil {
		return err
	}
	if err := turret.CheckAccountID("oldTurretAccountId", req.OldTurretID); err != nil {
		return err
	}
	if err := turret.CheckAccountID("newTurretAccountId", req.NewTurretID); err != nil {
		return err
	}
	if req.UserAccountID != "" {
		if err := turret.CheckAccountID("userAccountId", req.UserAccountID); err != nil {
			return err
		}
	}

	if len(req.TxFunctionHash) != 64 {
		return turret.New(turret.KindValidation, "txFunctionHash must be a hex sha256 digest")
	}
	if _, err := hex.DecodeString(req.TxFunctionHash); err != nil {
		return turret.Wrap(turret.KindValidation, "txFunctionHash must be a hex sha256 digest", err)
	}

	if req.Fee < s.cfg.HealFeeMin || req.Fee > s.cfg.HealFeeMax {
		return turret.New(turret.KindValidation,
			fmt.Sprintf("fee must be between %d and %d stroops", s.cfg.HealFeeMin, s.cfg.HealFeeMax))
	}
	return nil
}
