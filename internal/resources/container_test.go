package resources

import (
	"testing"

	"github.com/ledgerframe/callframe-engine/internal/ids"
)

func testAddr(t *testing.T) ids.ResourceAddress {
	t.Helper()
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	return ids.ResourceAddress(alloc.New(ids.KindResourceManager))
}

func TestBucketTakeAndPut(t *testing.T) {
	addr := testAddr(t)
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))

	b := NewBucket(alloc.New(ids.KindBucket), addr, 100)
	taken, err := b.Take(alloc.New(ids.KindBucket), 40)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if b.Amount() != 60 {
		t.Fatalf("expected 60 left, got %d", b.Amount())
	}
	if taken.Amount() != 40 {
		t.Fatalf("expected 40 taken, got %d", taken.Amount())
	}
	if err := b.Put(taken); err != nil {
		t.Fatalf("put: %v", err)
	}
	if b.Amount() != 100 {
		t.Fatalf("expected 100 after put-back, got %d", b.Amount())
	}
	if !taken.IsEmpty() {
		t.Fatalf("expected source bucket emptied after put")
	}
}

func TestBucketTakeInsufficientBalance(t *testing.T) {
	addr := testAddr(t)
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	b := NewBucket(alloc.New(ids.KindBucket), addr, 10)
	if _, err := b.Take(alloc.New(ids.KindBucket), 11); err == nil {
		t.Fatalf("expected insufficient balance error")
	}
}

func TestBucketCreateProofLocksContainer(t *testing.T) {
	addr := testAddr(t)
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	b := NewBucket(alloc.New(ids.KindBucket), addr, 10)

	p, err := b.CreateProof(alloc.New(ids.KindProof))
	if err != nil {
		t.Fatalf("create proof: %v", err)
	}
	if err := b.VerifyCanMove(); err == nil {
		t.Fatalf("expected locked bucket to fail VerifyCanMove")
	}
	if err := p.Drop(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := b.VerifyCanMove(); err != nil {
		t.Fatalf("expected unlocked bucket to pass VerifyCanMove: %v", err)
	}
}

func TestNonFungibleTakeMissingId(t *testing.T) {
	addr := testAddr(t)
	alloc := ids.NewAllocator(ids.HashBytes([]byte("tx")))
	b := NewNonFungibleBucket(alloc.New(ids.KindBucket), addr, []string{"1", "2", "3"})

	if _, err := b.TakeNonFungibles(alloc.New(ids.KindBucket), []string{"4"}); err == nil {
		t.Fatalf("expected NonFungibleNotFound error")
	}

	taken, err := b.TakeNonFungibles(alloc.New(ids.KindBucket), []string{"1", "2"})
	if err != nil {
		t.Fatalf("take_non_fungibles: %v", err)
	}
	if taken.Amount() != 2 {
		t.Fatalf("expected 2 taken, got %d", taken.Amount())
	}
	if b.Amount() != 1 {
		t.Fatalf("expected 1 left, got %d", b.Amount())
	}
}
