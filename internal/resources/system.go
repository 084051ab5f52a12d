package resources

import "github.com/ledgerframe/callframe-engine/internal/ids"

// System is the single native node exposing transaction-global facts
// (current epoch, transaction hash) to blueprint code through the system
// API, grounded on the original's System RENode.
type System struct {
	id      ids.NodeId
	epoch   uint64
	txHash  ids.Hash
}

// NewSystem creates the root frame's System node for a transaction running
// at the given epoch.
func NewSystem(id ids.NodeId, epoch uint64, txHash ids.Hash) *System {
	return &System{id: id, epoch: epoch, txHash: txHash}
}

func (s *System) Id() ids.NodeId         { return s.id }
func (s *System) Kind() ids.NodeKind     { return ids.KindSystem }
func (s *System) ChildIds() []ids.NodeId { return nil }
func (s *System) VerifyCanMove() error   { return nil }
func (s *System) VerifyCanPersist() error { return nil }
func (s *System) Droppable() bool        { return false }

// Epoch returns the epoch substate's current value.
func (s *System) Epoch() uint64 { return s.epoch }

// SetEpoch advances the epoch. Only the protocol-reserved epoch-change
// instruction is expected to call this.
func (s *System) SetEpoch(epoch uint64) { s.epoch = epoch }

// TransactionHash returns the hash of the transaction this frame tree was
// constructed for.
func (s *System) TransactionHash() ids.Hash { return s.txHash }
