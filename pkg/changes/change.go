package changes

import (
	"time"

	"github.com/google/uuid"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// Affected is one audit entry of the envelope: a unit the change touched and
// the event it underwent.
type Affected struct {
	Event  string
	Kind   units.Kind
	NameID string
}

// NameSet partitions unit names by kind.
type NameSet struct {
	Regions   []string
	Districts []string
}

// Change is one dated historical event wrapping exactly one matter. The
// envelope is immutable once constructed except for the derived audit
// fields, which are populated only while the change is applied.
type Change struct {
	ID          string
	Date        time.Time
	Source      string
	Description string
	Order       *int
	Matter      Matter

	// Derived audit bookkeeping.
	UnitsAffected []Affected
	EndedStateIDs []string // unit states this change closed
	NewStateIDs   []string // unit states this change opened

	// Names referenced before/after application, filled during
	// verification and used by the existence gate.
	Before NameSet
	After  NameSet
}

func New(date time.Time, source, description string, order *int, matter Matter) (*Change, error) {
	if date.IsZero() {
		return nil, faults.Shapef("change has no date")
	}
	if matter == nil {
		return nil, faults.Shapef("change dated %s has no matter", date.Format("2006-01-02"))
	}
	return &Change{
		ID:          uuid.NewString(),
		Date:        date,
		Source:      source,
		Description: description,
		Order:       order,
		Matter:      matter,
	}, nil
}

// Summary renders the one-line account of the event.
func (c *Change) Summary() string {
	return c.Matter.Summary(c.Date, c.Source)
}

// DistrictsInvolved lists the district names the change touches.
func (c *Change) DistrictsInvolved() []string {
	return c.Matter.DistrictsInvolved()
}

// VerifyConsistency runs the three verification gates, all side-effect-free
// on the triple, strictly before any mutation: structural cross-consistency
// of the triple, existence of every unit the matter references before
// application, and the matter-specific address and attribute checks. Any
// failure blocks application.
func (c *Change) VerifyConsistency(env Env) error {
	if err := env.State.VerifyConsistency(env.Regions, env.Districts, &c.Date); err != nil {
		return err
	}

	c.Before = NameSet{}
	c.After = NameSet{}
	if err := c.Matter.fillUnitsAffected(c, env); err != nil {
		return err
	}
	if err := c.verifyReferencedUnitsExist(env); err != nil {
		return err
	}

	if err := c.Matter.verifyAddresses(c, env); err != nil {
		return err
	}
	return c.Matter.verifyReformTargets(c, env)
}

func (c *Change) verifyReferencedUnitsExist(env Env) error {
	check := func(reg *units.Registry, names []string) error {
		for _, name := range names {
			u, err := reg.FindUnit(name)
			if err != nil {
				return err
			}
			if !u.ExistsAt(c.Date) {
				return faults.Consistencyf("%s %q has no state on %s, required by change %s",
					reg.Kind, name, c.Date.Format("2006-01-02"), c.Summary())
			}
		}
		return nil
	}
	if err := check(env.Regions, c.Before.Regions); err != nil {
		return err
	}
	return check(env.Districts, c.Before.Districts)
}

// Apply verifies the change and delegates to the matter, mutating the triple
// in place. Verification always precedes mutation; a failure inside the
// matter's apply leaves the replay aborted with no rollback.
func (c *Change) Apply(env Env) error {
	if err := c.VerifyConsistency(env); err != nil {
		return err
	}
	return c.Matter.apply(c, env)
}

// tag appends one audit tuple to both the unit's log and the envelope.
func (c *Change) tag(u *units.Unit, event string) {
	u.RecordChange(event, c.ID)
	c.UnitsAffected = append(c.UnitsAffected, Affected{Event: event, Kind: u.Kind, NameID: u.NameID})
}

// endState links a state this change closed.
func (c *Change) endState(st *units.State) {
	st.NextChangeID = c.ID
	c.EndedStateIDs = append(c.EndedStateIDs, st.ID)
}

// openState links a state this change opened.
func (c *Change) openState(st *units.State) {
	st.PrevChangeID = c.ID
	c.NewStateIDs = append(c.NewStateIDs, st.ID)
}
