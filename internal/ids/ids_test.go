package ids

import "testing"

func TestAllocatorCountersAreMonotoneAndPerKind(t *testing.T) {
	alloc := NewAllocator(HashBytes([]byte("tx-1")))

	b1 := alloc.New(KindBucket)
	b2 := alloc.New(KindBucket)
	p1 := alloc.New(KindProof)

	if b1.Counter != 1 || b2.Counter != 2 {
		t.Fatalf("expected sequential counters 1,2 for buckets, got %d,%d", b1.Counter, b2.Counter)
	}
	if p1.Counter != 1 {
		t.Fatalf("expected proof counter to start at 1 independent of bucket counter, got %d", p1.Counter)
	}
	if b1.TxHash != b2.TxHash || b1.TxHash != p1.TxHash {
		t.Fatalf("expected every id from one allocator to share the same tx hash")
	}
}

func TestAllocatorsOnDifferentHashesProduceDifferentIds(t *testing.T) {
	a1 := NewAllocator(HashBytes([]byte("tx-a")))
	a2 := NewAllocator(HashBytes([]byte("tx-b")))

	id1 := a1.New(KindBucket)
	id2 := a2.New(KindBucket)
	if id1 == id2 {
		t.Fatalf("expected different tx hashes to produce different ids")
	}
}

func TestNodeIdEncodeRoundTrips(t *testing.T) {
	alloc := NewAllocator(HashBytes([]byte("tx")))
	id := alloc.New(KindVault)

	encoded := id.Encode()
	decoded, err := ParseNodeId(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if decoded != id {
		t.Fatalf("expected round-tripped id to equal original: got %+v want %+v", decoded, id)
	}
}

func TestParseNodeIdRejectsGarbage(t *testing.T) {
	if _, err := ParseNodeId("not-a-node-id"); err == nil {
		t.Fatalf("expected an error for a malformed encoded id")
	}
}

func TestHashBytesIsDeterministic(t *testing.T) {
	h1 := HashBytes([]byte("a"), []byte("b"))
	h2 := HashBytes([]byte("a"), []byte("b"))
	if h1 != h2 {
		t.Fatalf("expected identical inputs to hash identically")
	}
	h3 := HashBytes([]byte("different input"))
	if h1 == h3 {
		t.Fatalf("expected different inputs to hash differently")
	}
}
