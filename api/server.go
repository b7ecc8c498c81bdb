// Package api exposes the turret over HTTP: fee-gated TxFunction upload, the
// published signer-resolution endpoint peers heal toward, and the heal
// protocol itself.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/stellar/stellar-turrets/config"
	"github.com/stellar/stellar-turrets/heal"
	"github.com/stellar/stellar-turrets/txfunc"
)

// Uploader is the TxFunction store surface the API serves.
type Uploader interface {
	Upload(ctx context.Context, code, fields []byte, feeEnvelopeXDR string) (*txfunc.Upload, error)
	Details(ctx context.Context, hash string) (*txfunc.Details, error)
}

// Healer runs the signer-rotation protocol.
type Healer interface {
	Heal(ctx context.Context, req heal.Request) (*heal.Result, error)
}

// Server is the turret's HTTP API.
type Server struct {
	cfg     config.Config
	store   Uploader
	healer  Healer
	log     zerolog.Logger
	metrics *metrics
	now     func() time.Time
}

func NewServer(cfg config.Config, store Uploader, healer Healer, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		healer:  healer,
		log:     log.With().Str("component", "api").Logger(),
		metrics: newMetrics(),
		now:     time.Now,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/", s.handleInfo)
	r.Post("/tx-functions", s.handleUpload)
	r.Get("/tx-functions/{hash}", s.handleTxFunction)
	r.Post("/heal", s.handleHeal)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return r
}

type infoResponse struct {
	Turret        string `json:"turret"`
	Network       string `json:"network"`
	UploadDivisor int64  `json:"uploadDivisor"`
	Version       string `json:"version"`
}

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Turret:        s.cfg.TurretAddress,
		Network:       s.cfg.NetworkPassphrase,
		UploadDivisor: s.cfg.UploadDivisor,
		Version:       Version,
	})
}

func (s *Server) handleTxFunction(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	details, err := s.store.Details(r.Context(), hash)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
