// Package api implements the debug/introspection HTTP surface
// SPEC_FULL's domain stack adds around the engine: submit a manifest,
// fetch its receipt, and a health endpoint. This is an operational
// harness, not the transaction/CLI framing spec §1 excludes from the
// engine core — analogous to the teacher's cmd/appserver wrapping its
// own service layer, grounded on
// infrastructure/middleware/health.go's HealthChecker/handler shape
// (plain net/http handlers, JSON-encoded responses, a registered-check
// map) with chi as the router instead of the teacher's own mux choice.
// /metrics follows the teacher's promhttp.Handler() convention (used
// across its cmd/gateway, cmd/marble and infrastructure/service/runner.go).
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerframe/callframe-engine/internal/dispatch"
	"github.com/ledgerframe/callframe-engine/internal/fee"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/store"
	"github.com/ledgerframe/callframe-engine/internal/txn"
	"github.com/ledgerframe/callframe-engine/pkg/logger"
)

// Server owns the receipts a submission surface has produced since
// process start, the backing store manifests execute against, and the
// collaborators every Manifest is run with.
type Server struct {
	mu       sync.RWMutex
	receipts map[string]txn.Receipt

	backing    store.SubstateStore
	feeMetrics *fee.Metrics
	rules      dispatch.AccessRules
	packages   dispatch.PackageResolver
	sandbox    dispatch.Sandbox

	log       *logger.Logger
	startTime time.Time
	version   string
}

// Config bundles the collaborators Server needs. Any of Rules,
// Packages, Sandbox may be nil (no access control / no blueprint
// calls in the manifests this server will run).
type Config struct {
	Backing    store.SubstateStore
	FeeMetrics *fee.Metrics
	Rules      dispatch.AccessRules
	Packages   dispatch.PackageResolver
	Sandbox    dispatch.Sandbox
	Log        *logger.Logger
	Version    string
}

func NewServer(cfg Config) *Server {
	return &Server{
		receipts:   make(map[string]txn.Receipt),
		backing:    cfg.Backing,
		feeMetrics: cfg.FeeMetrics,
		rules:      cfg.Rules,
		packages:   cfg.Packages,
		sandbox:    cfg.Sandbox,
		log:        cfg.Log,
		startTime:  time.Now(),
		version:    cfg.Version,
	}
}

// Router builds the chi mux: health and liveness probes, /metrics, plus
// the manifest submission and receipt-fetch endpoints.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/livez", s.handleLiveness)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/manifests", s.handleSubmit)
	r.Get("/receipts/{id}", s.handleReceipt)
	return r
}

type healthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
	Uptime    string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// manifestRequest is the wire shape a caller posts to /manifests.
// Invocations themselves are not part of the debug surface's JSON
// contract (spec §1 keeps wire encoding of manifests out of scope):
// the endpoint decodes this body, answers 400 if it is malformed and
// 501 otherwise, and never runs a manifest. In-process callers that
// have built a txn.Manifest with internal/txn's Go types run it
// through SubmitManifest instead.
type manifestRequest struct {
	TxHashHex string `json:"tx_hash_hex"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req manifestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	writeJSON(w, http.StatusNotImplemented, map[string]string{
		"error": "submitting a manifest over the wire requires a registered blueprint/bytecode encoding, out of this debug surface's scope; use SubmitManifest from an in-process caller",
	})
}

// SubmitManifest runs m and stores its receipt for later retrieval by
// /receipts/{id}. Exposed for in-process callers (tests, cmd/enginectl)
// that construct a txn.Manifest directly rather than over HTTP.
func (s *Server) SubmitManifest(m txn.Manifest) txn.Receipt {
	receipt := txn.Execute(m, s.backing, s.feeMetrics, s.rules, s.packages, s.sandbox)
	s.mu.Lock()
	s.receipts[receipt.ID] = receipt
	s.mu.Unlock()
	if s.log != nil {
		if receipt.Committed != nil {
			s.log.WithField("receipt_id", receipt.ID).Info("transaction committed")
		} else {
			s.log.WithField("receipt_id", receipt.ID).Warn("transaction rejected")
		}
	}
	return receipt
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	receipt, ok := s.receipts[id]
	s.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no receipt with that id"})
		return
	}
	writeJSON(w, http.StatusOK, newReceiptView(receipt))
}

// receiptView renders a txn.Receipt as JSON-safe primitives; error
// values and ids.NodeId aren't themselves JSON-marshalable in the
// shape a debug client wants, so this flattens them to strings.
type receiptView struct {
	ID             string   `json:"id"`
	Committed      bool     `json:"committed"`
	Error          string   `json:"error,omitempty"`
	FeeConsumed    uint64   `json:"fee_consumed,omitempty"`
	StateUpdates   []string `json:"state_updates,omitempty"`
	ResourcesMoved []string `json:"resources_moved,omitempty"`
}

func newReceiptView(r txn.Receipt) receiptView {
	v := receiptView{ID: r.ID}
	if r.Committed != nil {
		v.Committed = true
		for _, id := range r.Committed.StateUpdates {
			v.StateUpdates = append(v.StateUpdates, id.String())
		}
		for _, id := range r.Committed.ResourcesMoved {
			v.ResourcesMoved = append(v.ResourcesMoved, nodeIdString(id))
		}
	} else if r.Rejected != nil {
		v.Error = r.Rejected.Error.Error()
		v.FeeConsumed = r.Rejected.FeeConsumed
	}
	return v
}

func nodeIdString(id ids.NodeId) string { return id.String() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
