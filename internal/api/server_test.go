package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/callframe"
	"github.com/ledgerframe/callframe-engine/internal/dispatch"
	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
	"github.com/ledgerframe/callframe-engine/internal/resources"
	"github.com/ledgerframe/callframe-engine/internal/store"
	"github.com/ledgerframe/callframe-engine/internal/txn"
)

func ref(s callframe.ExecutionState) *callframe.ExecutionState { return &s }

func TestHealthEndpointReportsHealthy(t *testing.T) {
	s := NewServer(Config{Backing: store.NewMemoryStore()})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body healthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected healthy status, got %q", body.Status)
	}
}

func TestSubmitManifestAndFetchReceiptRoundTrips(t *testing.T) {
	s := NewServer(Config{Backing: store.NewMemoryStore()})

	txHash := ids.HashBytes([]byte("api-test"))
	alloc := ids.NewAllocator(txHash)
	addr := ids.ResourceAddress(alloc.New(ids.KindResourceManager))
	bucketId := alloc.New(ids.KindBucket)
	newBucketId := alloc.New(ids.KindBucket)

	m := txn.Manifest{
		Hash:      txHash,
		MaxDepth:  8,
		FeeBudget: 1000,
		Seed: func(root *callframe.Frame) {
			b := resources.NewBucket(bucketId, addr, 100)
			root.OwnedNodes.Insert(bucketId, &node.HeapRootRENode{Root: b})
			root.VisibleRefs[bucketId] = node.HeapPointer(0, bucketId, nil)
		},
		Invocations: []dispatch.Invocation{
			{
				Actor:   callframe.MethodActor(bucketId, "take"),
				State:   ref(callframe.RENodeRefState(bucketId)),
				FnIdent: "take",
				Args:    resources.Args{"new_id": newBucketId, "amount": uint64(100)},
			},
		},
	}

	receipt := s.SubmitManifest(m)
	if receipt.Rejected != nil {
		t.Fatalf("expected a committed receipt, got rejected: %v", receipt.Rejected.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/receipts/"+receipt.ID, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view receiptView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !view.Committed {
		t.Fatalf("expected committed=true in the receipt view")
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := NewServer(Config{Backing: store.NewMemoryStore()})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "" {
		t.Fatalf("expected a Content-Type header on the metrics response")
	}
}

func TestFetchUnknownReceiptReturnsNotFound(t *testing.T) {
	s := NewServer(Config{Backing: store.NewMemoryStore()})
	req := httptest.NewRequest(http.MethodGet, "/receipts/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
