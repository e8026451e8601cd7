// Package filter narrows a list of recorded entries down to the ones an
// admin asked to see and derives the dashboard statistics from them.
// Everything here is pure: no I/O, no shared state.
package filter

// Constraint is an optional predicate over one filter dimension.  The
// zero value places no constraint; Only(b) admits exactly band b.
type Constraint[B comparable] struct {
    band B
    set  bool
}

// Any returns a constraint that admits every value.
func Any[B comparable]() Constraint[B] { return Constraint[B]{} }

// Only returns a constraint that admits band b and nothing else.
func Only[B comparable](b B) Constraint[B] { return Constraint[B]{band: b, set: true} }

// Band returns the constrained band and whether one is set.
func (c Constraint[B]) Band() (B, bool) { return c.band, c.set }

// Active reports whether the constraint narrows anything.
func (c Constraint[B]) Active() bool { return c.set }

// Admits reports whether a value classified as b passes.
func (c Constraint[B]) Admits(b B) bool { return !c.set || c.band == b }
