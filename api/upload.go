package api

import (
	"encoding/base64"
	"net/http"

	"github.com/stellar/stellar-turrets/turret"
)

// maxUploadBytes bounds the multipart form size for uploads. Functions are
// small executable policies, not media.
const maxUploadBytes = 1 << 20

// handleUpload accepts a form with fields:
//
//	txFunction       function code (required)
//	txFunctionFields optional structured fields, base64-encoded JSON
//	txFunctionFee    fee payment transaction envelope, base64 XDR
//
// On fee failure the response is 402 with the exact cost so the client can
// retry with a correct payment; that is an expected negotiation step, not a
// fault.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && err != http.ErrNotMultipart {
		s.writeError(w, r, turret.Wrap(turret.KindValidation, "unreadable upload form", err))
		return
	}

	code := []byte(r.FormValue("txFunction"))

	var fields []byte
	if enc := r.FormValue("txFunctionFields"); enc != "" {
		decoded, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			s.writeError(w, r, turret.Wrap(turret.KindValidation, "txFunctionFields is not valid base64", err))
			return
		}
		fields = decoded
	}

	result, err := s.store.Upload(r.Context(), code, fields, r.FormValue("txFunctionFee"))
	if err != nil {
		s.metrics.uploads.WithLabelValues("rejected").Inc()
		s.writeError(w, r, err)
		return
	}
	s.metrics.uploads.WithLabelValues("stored").Inc()
	writeJSON(w, http.StatusOK, result)
}
