// Package store persists detectors in a SQLite database: one geometry,
// hit and bank table shared by every detector, keyed by detector,
// variation and run id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/detgeo/pkg/emit"
	"github.com/chazu/detgeo/pkg/sensitive"
	"github.com/chazu/detgeo/pkg/volume"
)

// ErrNotFound is returned when no rows match a detector run.
var ErrNotFound = errors.New("detector run not found")

// Store wraps the database handle.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the database at path. The parent
// directory is created when missing; ":memory:" opens a private in-memory
// database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// WriteDetector replaces every row of d's detector, variation and id in a
// single transaction. Hit and bank rows cover the sensitivity tags in use.
func (s *Store) WriteDetector(ctx context.Context, d *volume.Detector) error {
	hits, err := emit.HitRows(d)
	if err != nil {
		return err
	}
	banks, err := emit.BankRows(d)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"geometry", "hits", "banks"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE detector = ? AND variation = ? AND id = ?",
			d.Name, d.Variation, d.ID,
		); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	written := s.now().UTC().Format(time.RFC3339)
	for i, r := range emit.GeometryRows(d) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO geometry (
                detector, variation, id, seq, name, mother, description, pos, rot, col,
                type, dimensions, material, magfield, ncopy, pmany, exist, visible, style,
                sensitivity, hit_type, identity, rmin, rmax, written_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Name, r.Variation, r.ID, i, r.Name, r.Mother, r.Description, r.Pos, r.Rot, r.Col,
			r.Type, r.Dimensions, r.Material, r.MagField, r.NCopy, r.PMany, r.Exist, r.Visible, r.Style,
			r.Sensitivity, r.HitType, r.Identity, r.RMin, r.RMax, written,
		); err != nil {
			return fmt.Errorf("insert volume %s: %w", r.Name, err)
		}
	}

	for _, h := range hits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hits (
                detector, variation, id, name, description, identifiers, signal_threshold,
                time_window, prod_threshold, max_step, rise_time, fall_time, mv_to_mev, pedestal, delay
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Name, h.Variation, h.ID, h.Name, h.Description, h.Identifiers, h.SignalThreshold,
			h.TimeWindow, h.ProdThreshold, h.MaxStep, h.RiseTime, h.FallTime, h.MVToMeV, h.Pedestal, h.Delay,
		); err != nil {
			return fmt.Errorf("insert hit %s: %w", h.Name, err)
		}
	}

	for i, b := range banks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO banks (
                detector, variation, id, seq, bankname, name, description, num, type
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Name, b.Variation, b.ID, i, b.BankName, b.Name, b.Description, b.Num, b.Type,
		); err != nil {
			return fmt.Errorf("insert bank row %s.%s: %w", b.BankName, b.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit detector %s: %w", d.Name, err)
	}
	return nil
}

// LatestID returns the highest run id stored for detector and variation,
// or 0 when none is stored.
func (s *Store) LatestID(ctx context.Context, detector, variation string) (int, error) {
	var id sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(id) FROM geometry WHERE detector = ? AND variation = ?",
		detector, variation,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("latest id: %w", err)
	}
	return int(id.Int64), nil
}

// NextID returns the run id a new write should use.
func (s *Store) NextID(ctx context.Context, detector, variation string) (int, error) {
	id, err := s.LatestID(ctx, detector, variation)
	if err != nil {
		return 0, err
	}
	return id + 1, nil
}

// ReadDetector loads one detector run. Only the descriptors that were in
// use when the run was written come back.
func (s *Store) ReadDetector(ctx context.Context, detector, variation string, id int) (*volume.Detector, error) {
	d := volume.NewDetector(detector, variation, id)

	if err := s.readGeometry(ctx, d); err != nil {
		return nil, err
	}
	if d.Tree.Len() == 0 {
		return nil, fmt.Errorf("%w: %s/%s/%d", ErrNotFound, detector, variation, id)
	}
	if err := s.readSensitive(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) readGeometry(ctx context.Context, d *volume.Detector) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, mother, description, pos, rot, col, type, dimensions, material, magfield,
                ncopy, pmany, exist, visible, style, sensitivity, hit_type, identity, rmin, rmax
         FROM geometry WHERE detector = ? AND variation = ? AND id = ? ORDER BY seq`,
		d.Name, d.Variation, d.ID,
	)
	if err != nil {
		return fmt.Errorf("query geometry: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := emit.GeometryRow{Key: emit.Key{Variation: d.Variation, ID: d.ID}}
		if err := rows.Scan(
			&r.Name, &r.Mother, &r.Description, &r.Pos, &r.Rot, &r.Col, &r.Type, &r.Dimensions,
			&r.Material, &r.MagField, &r.NCopy, &r.PMany, &r.Exist, &r.Visible, &r.Style,
			&r.Sensitivity, &r.HitType, &r.Identity, &r.RMin, &r.RMax,
		); err != nil {
			return fmt.Errorf("scan geometry: %w", err)
		}
		v, err := emit.FromGeometryRow(r)
		if err != nil {
			return err
		}
		if err := d.Add(v); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) readSensitive(ctx context.Context, d *volume.Detector) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, identifiers, signal_threshold, time_window, prod_threshold,
                max_step, rise_time, fall_time, mv_to_mev, pedestal, delay
         FROM hits WHERE detector = ? AND variation = ? AND id = ? ORDER BY name`,
		d.Name, d.Variation, d.ID,
	)
	if err != nil {
		return fmt.Errorf("query hits: %w", err)
	}
	var descs []*sensitive.Descriptor
	for rows.Next() {
		var (
			sd           sensitive.Descriptor
			mv, pedestal float64
		)
		if err := rows.Scan(
			&sd.Name, &sd.Description, &sd.Identifiers, &sd.SignalThreshold, &sd.TimeWindow,
			&sd.ProdThreshold, &sd.MaxStep, &sd.RiseTime, &sd.FallTime, &mv, &pedestal, &sd.Delay,
		); err != nil {
			rows.Close()
			return fmt.Errorf("scan hit: %w", err)
		}
		sd.MVToMeV = strconv.FormatFloat(mv, 'g', -1, 64)
		sd.Pedestal = strconv.FormatFloat(pedestal, 'g', -1, 64)
		descs = append(descs, &sd)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, sd := range descs {
		if err := s.readBanks(ctx, d, sd); err != nil {
			return err
		}
		if err := d.AddSensitive(sd); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) readBanks(ctx context.Context, d *volume.Detector, sd *sensitive.Descriptor) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, num, type FROM banks
         WHERE detector = ? AND variation = ? AND id = ? AND bankname = ? ORDER BY seq`,
		d.Name, d.Variation, d.ID, sd.Name,
	)
	if err != nil {
		return fmt.Errorf("query banks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r sensitive.BankRow
		if err := rows.Scan(&r.Name, &r.Comment, &r.ID, &r.Type); err != nil {
			return fmt.Errorf("scan bank row: %w", err)
		}
		if r.Name == "bankid" {
			sd.BankID = r.ID
		}
		sd.Rows = append(sd.Rows, r)
	}
	return rows.Err()
}
