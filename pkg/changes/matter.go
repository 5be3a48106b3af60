// Package changes implements the four kinds of administrative change and the
// dated envelope that verifies and applies them against the running
// (administrative state, region registry, district registry) triple.
package changes

import (
	"time"

	"admhist/pkg/admstate"
	"admhist/pkg/timespan"
	"admhist/pkg/units"
)

// Env carries everything a change needs to verify and apply itself: the
// running triple plus the end-of-history horizon used to close the spans of
// newly created unit states. The horizon travels explicitly through the call
// chain; nothing here is read from globals.
type Env struct {
	State     *admstate.State
	Regions   *units.Registry
	Districts *units.Registry
	Horizon   time.Time
}

func (e Env) registryFor(kind units.Kind) *units.Registry {
	if kind == units.KindRegion {
		return e.Regions
	}
	return e.Districts
}

func (e Env) horizonSpan(start time.Time) (*timespan.Span, error) {
	return timespan.New(start, e.Horizon)
}

// Matter is the payload of a change. The set of implementations is closed:
// UnitReform, OneToMany, ManyToOne and ChangeAdmState, dispatched through
// the one apply capability. The unexported methods keep the variant set
// sealed inside this package.
type Matter interface {
	// Kind returns the discriminator used in the input records.
	Kind() string
	// Summary renders a one-line human-readable account of the event.
	Summary(date time.Time, source string) string
	// DistrictsInvolved lists the district names the matter touches.
	DistrictsInvolved() []string

	// fillUnitsAffected precomputes the unit names the matter references,
	// partitioned by kind and by before/after role.
	fillUnitsAffected(c *Change, env Env) error
	// verifyAddresses canonicalizes and checks every address the matter
	// references. Side-effect-free on the triple; the matter's own address
	// fields are rewritten to their canonical forms.
	verifyAddresses(c *Change, env Env) error
	// verifyReformTargets checks matter-specific preconditions on unit
	// attributes. Side-effect-free.
	verifyReformTargets(c *Change, env Env) error
	// apply mutates the triple. Runs only after all verification gates.
	apply(c *Change, env Env) error
}
