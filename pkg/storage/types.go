package storage

import "time"

// StateRow is one persisted administrative snapshot.
type StateRow struct {
	ID        int64
	ValidFrom time.Time
	ValidTo   time.Time
}

// EntryRow is one address of a persisted snapshot: a region when DistrictID
// is empty, a district otherwise.
type EntryRow struct {
	Country    string
	RegionID   string
	DistrictID string
}

// UnitStateRow is one persisted unit state.
type UnitStateRow struct {
	Kind      string
	NameID    string
	Name      string
	SeatName  string
	DistType  string
	ValidFrom time.Time
	ValidTo   time.Time
}

// ChangeRow is one persisted change record.
type ChangeRow struct {
	ID          string
	Date        time.Time
	Order       *int
	Kind        string
	Source      string
	Description string
	Summary     string
}

// UnitEventRow is one entry of a unit's audit trail: the event it underwent
// and the change that caused it.
type UnitEventRow struct {
	Event   string
	Date    time.Time
	Summary string
}

// Stats summarizes the persisted history.
type Stats struct {
	Regions   int
	Districts int
	States    int
	Changes   int
}
