package resources

import (
	"github.com/ledgerframe/callframe-engine/internal/ids"
)

// Component is the RENode backing a blueprint instance (spec §3). Its
// metadata (package address + blueprint name, the ComponentInfo substate)
// and its opaque state blob (ComponentState) are separately lockable so a
// method call only pays for whichever it actually touches.
type Component struct {
	id ids.NodeId

	packageAddress ids.PackageAddress
	blueprintName  string

	state []byte
}

// NewComponent creates a component instance for blueprintName out of
// packageAddress, with its initial encoded state.
func NewComponent(id ids.NodeId, packageAddress ids.PackageAddress, blueprintName string, initialState []byte) *Component {
	return &Component{
		id:             id,
		packageAddress: packageAddress,
		blueprintName:  blueprintName,
		state:          initialState,
	}
}

func (c *Component) Id() ids.NodeId         { return c.id }
func (c *Component) Kind() ids.NodeKind     { return ids.KindComponent }
func (c *Component) ChildIds() []ids.NodeId { return nil }

// VerifyCanMove always succeeds: components move by reference only, and the
// reference itself carries no lock state.
func (c *Component) VerifyCanMove() error { return nil }

// VerifyCanPersist always succeeds: components are the canonical persisted
// node kind.
func (c *Component) VerifyCanPersist() error { return nil }

// Droppable is false for every component, globalized or not, so a
// component still owned by a frame at teardown makes its drop fail.
func (c *Component) Droppable() bool { return false }

// Info returns the component's (package address, blueprint name) pair —
// the ComponentInfo substate.
func (c *Component) Info() (ids.PackageAddress, string) {
	return c.packageAddress, c.blueprintName
}

// State returns the component's encoded state — the ComponentState
// substate.
func (c *Component) State() []byte {
	return c.state
}

// SetState replaces the component's encoded state. Callers are expected to
// hold a write lock on the ComponentState substate before calling this.
func (c *Component) SetState(state []byte) {
	c.state = state
}
