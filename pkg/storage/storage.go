// Package storage persists a replayed history to sqlite: one table of
// snapshots, the (region, district) pairs each snapshot holds, every unit
// state, and the change log with its per-unit audit entries.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"admhist/pkg/history"
	"admhist/pkg/units"
)

const timeLayout = "2006-01-02 15:04:05"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS adm_states (
  id          INTEGER PRIMARY KEY,
  valid_from  DATETIME NOT NULL,
  valid_to    DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS adm_state_entries (
  id          INTEGER PRIMARY KEY,
  state_id    INTEGER NOT NULL,
  country     TEXT NOT NULL,
  region_id   TEXT NOT NULL,
  district_id TEXT NOT NULL DEFAULT '',
  UNIQUE(state_id, country, region_id, district_id)
);
CREATE INDEX IF NOT EXISTS idx_entries_state ON adm_state_entries(state_id);
CREATE TABLE IF NOT EXISTS unit_states (
  id         INTEGER PRIMARY KEY,
  state_uid  TEXT NOT NULL,
  kind       TEXT NOT NULL CHECK (kind IN ('region','district')),
  name_id    TEXT NOT NULL,
  name       TEXT NOT NULL,
  seat_name  TEXT,
  dist_type  TEXT,
  valid_from DATETIME NOT NULL,
  valid_to   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_unit_states_unit ON unit_states(kind, name_id);
CREATE TABLE IF NOT EXISTS change_log (
  id          TEXT PRIMARY KEY,
  date        DATETIME NOT NULL,
  ord         INTEGER,
  kind        TEXT NOT NULL,
  source      TEXT,
  description TEXT,
  summary     TEXT
);
CREATE INDEX IF NOT EXISTS idx_change_log_date ON change_log(date);
CREATE TABLE IF NOT EXISTS change_units (
  id        INTEGER PRIMARY KEY,
  change_id TEXT NOT NULL,
  event     TEXT NOT NULL,
  unit_kind TEXT NOT NULL,
  name_id   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_change_units_unit ON change_units(unit_kind, name_id);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveHistory replaces the persisted history with the given one, in a
// single transaction.
func (d *DB) SaveHistory(ctx context.Context, h *history.History) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"adm_state_entries", "adm_states", "unit_states", "change_units", "change_log"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	for _, st := range h.StatesList {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `INSERT INTO adm_states(valid_from, valid_to) VALUES(?,?)`,
			st.Span.Start.Format(timeLayout), st.Span.End.Format(timeLayout))
		if err != nil {
			return err
		}
		var stateID int64
		stateID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, addr := range st.Addresses() {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO adm_state_entries(state_id, country, region_id, district_id) VALUES(?,?,?,?)`,
				stateID, string(addr.Country), addr.Region, addr.District)
			if err != nil {
				return err
			}
		}
	}

	for _, reg := range []*units.Registry{h.Regions, h.Districts} {
		for _, u := range reg.Units {
			for _, st := range u.States {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO unit_states(state_uid, kind, name_id, name, seat_name, dist_type, valid_from, valid_to) VALUES(?,?,?,?,?,?,?,?)`,
					st.ID, string(u.Kind), u.NameID, st.Name, nullIfEmpty(st.SeatName), nullIfEmpty(st.DistType),
					st.Span.Start.Format(timeLayout), st.Span.End.Format(timeLayout))
				if err != nil {
					return err
				}
			}
		}
	}

	for _, c := range h.ChangesList {
		var ord interface{}
		if c.Order != nil {
			ord = *c.Order
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO change_log(id, date, ord, kind, source, description, summary) VALUES(?,?,?,?,?,?,?)`,
			c.ID, c.Date.Format(timeLayout), ord, c.Matter.Kind(), nullIfEmpty(c.Source), nullIfEmpty(c.Description), c.Summary())
		if err != nil {
			return err
		}
		for _, a := range c.UnitsAffected {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO change_units(change_id, event, unit_kind, name_id) VALUES(?,?,?,?)`,
				c.ID, a.Event, string(a.Kind), a.NameID)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ListStates returns every persisted snapshot, chronological.
func (d *DB) ListStates(ctx context.Context) ([]StateRow, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, valid_from, valid_to FROM adm_states ORDER BY valid_from`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StateRow
	for rows.Next() {
		var r StateRow
		var from, to string
		if err := rows.Scan(&r.ID, &from, &to); err != nil {
			return nil, err
		}
		r.ValidFrom = parseStoredTime(from)
		r.ValidTo = parseStoredTime(to)
		out = append(out, r)
	}
	return out, rows.Err()
}

// StateEntriesAt returns the addresses of the snapshot covering the date.
func (d *DB) StateEntriesAt(ctx context.Context, date time.Time) ([]EntryRow, error) {
	q := `SELECT e.country, e.region_id, e.district_id
FROM adm_state_entries e JOIN adm_states s ON s.id = e.state_id
WHERE s.valid_from <= ? AND ? < s.valid_to
ORDER BY e.country, e.region_id, e.district_id`
	ts := date.Format(timeLayout)
	rows, err := d.sql.QueryContext(ctx, q, ts, ts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.Country, &r.RegionID, &r.DistrictID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ChangeListOptions controls selection when listing changes.
type ChangeListOptions struct {
	Since    time.Time
	District string
	Limit    int
}

// ListChanges returns persisted changes matching the filters, chronological.
func (d *DB) ListChanges(ctx context.Context, opts ChangeListOptions) ([]ChangeRow, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if !opts.Since.IsZero() {
		where += " AND date >= ?"
		args = append(args, opts.Since.Format(timeLayout))
	}
	if opts.District != "" {
		where += " AND id IN (SELECT change_id FROM change_units WHERE unit_kind = 'district' AND name_id = ?)"
		args = append(args, opts.District)
	}
	q := "SELECT id, date, ord, kind, source, description, summary FROM change_log " + where + " ORDER BY date, ord IS NULL, ord"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChangeRow
	for rows.Next() {
		var r ChangeRow
		var date string
		var ord sql.NullInt64
		var source, description, summary sql.NullString
		if err := rows.Scan(&r.ID, &date, &ord, &r.Kind, &source, &description, &summary); err != nil {
			return nil, err
		}
		r.Date = parseStoredTime(date)
		if ord.Valid {
			n := int(ord.Int64)
			r.Order = &n
		}
		r.Source = source.String
		r.Description = description.String
		r.Summary = summary.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// UnitTimeline returns every persisted state of one unit, chronological.
func (d *DB) UnitTimeline(ctx context.Context, kind, nameID string) ([]UnitStateRow, error) {
	q := `SELECT kind, name_id, name, seat_name, dist_type, valid_from, valid_to
FROM unit_states WHERE kind = ? AND name_id = ? ORDER BY valid_from`
	rows, err := d.sql.QueryContext(ctx, q, kind, nameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UnitStateRow
	for rows.Next() {
		var r UnitStateRow
		var seat, distType sql.NullString
		var from, to string
		if err := rows.Scan(&r.Kind, &r.NameID, &r.Name, &seat, &distType, &from, &to); err != nil {
			return nil, err
		}
		r.SeatName = seat.String
		r.DistType = distType.String
		r.ValidFrom = parseStoredTime(from)
		r.ValidTo = parseStoredTime(to)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UnitEvents returns a unit's audit trail joined with the change log.
func (d *DB) UnitEvents(ctx context.Context, kind, nameID string) ([]UnitEventRow, error) {
	q := `SELECT u.event, c.date, c.summary
FROM change_units u JOIN change_log c ON c.id = u.change_id
WHERE u.unit_kind = ? AND u.name_id = ? ORDER BY c.date, c.ord IS NULL, c.ord`
	rows, err := d.sql.QueryContext(ctx, q, kind, nameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UnitEventRow
	for rows.Next() {
		var r UnitEventRow
		var date string
		var summary sql.NullString
		if err := rows.Scan(&r.Event, &date, &summary); err != nil {
			return nil, err
		}
		r.Date = parseStoredTime(date)
		r.Summary = summary.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	row := d.sql.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(DISTINCT name_id) FROM unit_states WHERE kind = 'region'),
		(SELECT COUNT(DISTINCT name_id) FROM unit_states WHERE kind = 'district'),
		(SELECT COUNT(*) FROM adm_states),
		(SELECT COUNT(*) FROM change_log)`)
	if err := row.Scan(&s.Regions, &s.Districts, &s.States, &s.Changes); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// parseStoredTime handles both the sqlite CURRENT_TIMESTAMP format and
// RFC3339.
func parseStoredTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
