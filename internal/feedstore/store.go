package feedstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/database"
	"github.com/stavrou/homebase/internal/utils"
)

// recordColumns is the column list shared by all feed tables.
// Column order must match the scan functions below.
const recordColumns = `id, period_key, natural_key, payload, status, rank_score, created_at, approved_at, completed_at, resolved_at, outcome, correct, profit_loss`

// Store provides period-scoped batch refresh, dedup insert, status promotion
// and outcome resolution over one feed table.
//
// Every mutation runs inside a SQLite transaction and additionally serializes
// through a per-period-key mutex, so two concurrent refreshes of the same
// period cannot interleave their delete+insert sequences. Reads take no lock
// and may observe either the pre- or post-refresh state.
type Store[P any] struct {
	db    *sql.DB
	cfg   Config[P]
	locks *keyedMutex
	log   zerolog.Logger
}

// New creates a store for one feed
func New[P any](db *sql.DB, cfg Config[P], log zerolog.Logger) (*Store[P], error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("feed %q: %w", cfg.Feed, err)
	}

	return &Store[P]{
		db:    db,
		cfg:   cfg,
		locks: newKeyedMutex(),
		log:   log.With().Str("feed", cfg.Feed).Logger(),
	}, nil
}

// Feed returns the feed name this store serves
func (s *Store[P]) Feed() string {
	return s.cfg.Feed
}

// RefreshBatch atomically replaces the pending records of a period: it deletes
// records for periodKey whose status is in the pending set, inserts one record
// per candidate with the initial status, and returns the new record ids in
// candidate order. Records that have been promoted out of the pending set are
// left untouched, so human decisions survive automated re-runs.
//
// The whole batch is transactional: a failed insert rolls back the delete and
// all prior inserts.
func (s *Store[P]) RefreshBatch(periodKey string, candidates []P) ([]string, int, error) {
	if periodKey == "" {
		return nil, 0, fmt.Errorf("%w: period key is required", ErrInvalidArgument)
	}

	unlock := s.locks.lock(periodKey)
	defer unlock()
	defer utils.OperationTimer(s.cfg.Feed+"_refresh_batch", s.log)()

	now := time.Now().UTC()
	ids := make([]string, 0, len(candidates))
	removed := 0

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		placeholders := strings.Repeat("?,", len(s.cfg.PendingStatuses))
		placeholders = placeholders[:len(placeholders)-1]

		args := make([]interface{}, 0, len(s.cfg.PendingStatuses)+1)
		args = append(args, periodKey)
		for _, st := range s.cfg.PendingStatuses {
			args = append(args, string(st))
		}

		res, err := tx.Exec(
			`DELETE FROM `+s.cfg.Table+` WHERE period_key = ? AND status IN (`+placeholders+`)`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to delete stale pending records: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed = int(n)
		}

		for _, candidate := range candidates {
			id, err := s.insertRecord(tx, periodKey, candidate, now)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.log.Info().
		Str("period_key", periodKey).
		Int("inserted", len(ids)).
		Int("removed", removed).
		Msg("Batch refreshed")

	return ids, removed, nil
}

// AddOrGet inserts a record unless one with the same natural dedup key already
// exists, in which case the existing record's id is returned unchanged (no
// insert, no update). The second return value reports whether a new record was
// created. Producers retried for the same observation window therefore never
// create duplicates.
func (s *Store[P]) AddOrGet(payload P) (string, bool, error) {
	if s.cfg.NaturalKey == nil || s.cfg.PeriodKey == nil {
		return "", false, fmt.Errorf("%w: feed %q does not define a natural key", ErrInvalidArgument, s.cfg.Feed)
	}

	naturalKey := s.cfg.NaturalKey(payload)
	if naturalKey == "" {
		return "", false, fmt.Errorf("%w: natural key is empty", ErrInvalidArgument)
	}
	periodKey := s.cfg.PeriodKey(payload)
	if periodKey == "" {
		return "", false, fmt.Errorf("%w: period key is empty", ErrInvalidArgument)
	}

	unlock := s.locks.lock(naturalKey)
	defer unlock()

	var id string
	created := false

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		err := tx.QueryRow(
			`SELECT id FROM `+s.cfg.Table+` WHERE natural_key = ? LIMIT 1`,
			naturalKey,
		).Scan(&id)
		if err == nil {
			return nil // Existing record, nothing to do
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check for existing record: %w", err)
		}

		id, err = s.insertRecord(tx, periodKey, payload, time.Now().UTC())
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	if created {
		s.log.Debug().
			Str("id", id).
			Str("natural_key", naturalKey).
			Msg("Record created")
	}

	return id, created, nil
}

// insertRecord inserts one record within a transaction and returns its id
func (s *Store[P]) insertRecord(tx *sql.Tx, periodKey string, payload P, now time.Time) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode payload: %v", ErrInvalidArgument, err)
	}

	var naturalKey sql.NullString
	if s.cfg.NaturalKey != nil {
		if k := s.cfg.NaturalKey(payload); k != "" {
			naturalKey = sql.NullString{String: k, Valid: true}
		}
	}

	rank := 0.0
	if s.cfg.Rank != nil {
		rank = s.cfg.Rank(payload)
	}

	id := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO `+s.cfg.Table+`
		 (id, period_key, natural_key, payload, status, rank_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		periodKey,
		naturalKey,
		string(payloadJSON),
		string(s.cfg.InitialStatus),
		rank,
		now.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	return id, nil
}

// GetCurrent returns the most recent period's full record set, ordered by the
// feed's rank semantics. An empty table yields an empty batch, not an error.
func (s *Store[P]) GetCurrent() (CurrentBatch[P], error) {
	var periodKey string
	err := s.db.QueryRow(
		`SELECT period_key FROM ` + s.cfg.Table + ` ORDER BY created_at DESC, period_key DESC LIMIT 1`,
	).Scan(&periodKey)
	if errors.Is(err, sql.ErrNoRows) {
		return CurrentBatch[P]{Records: []Record[P]{}}, nil
	}
	if err != nil {
		return CurrentBatch[P]{}, fmt.Errorf("failed to find latest period: %w", err)
	}

	records, err := s.ListPeriod(periodKey)
	if err != nil {
		return CurrentBatch[P]{}, err
	}

	return CurrentBatch[P]{PeriodKey: periodKey, Records: records}, nil
}

// ListPeriod returns all records of one period in feed order
func (s *Store[P]) ListPeriod(periodKey string) ([]Record[P], error) {
	direction := "DESC"
	if s.cfg.Ascending {
		direction = "ASC"
	}

	rows, err := s.db.Query(
		`SELECT `+recordColumns+` FROM `+s.cfg.Table+`
		 WHERE period_key = ?
		 ORDER BY rank_score `+direction+`, created_at ASC`,
		periodKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list period records: %w", err)
	}
	defer rows.Close()

	records := []Record[P]{}
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// ListPeriods returns the most recent period keys, newest first
func (s *Store[P]) ListPeriods(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT period_key FROM `+s.cfg.Table+`
		 GROUP BY period_key
		 ORDER BY MAX(created_at) DESC, period_key DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan period key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating periods: %w", err)
	}

	return keys, nil
}

// Get returns one record by id
func (s *Store[P]) Get(id string) (*Record[P], error) {
	row := s.db.QueryRow(
		`SELECT `+recordColumns+` FROM `+s.cfg.Table+` WHERE id = ?`,
		id,
	)

	rec, err := s.scanRecordRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &rec, nil
}

// PromoteStatus transitions a record's lifecycle status. The transition must
// be allowed by the feed's transition table; entering the approved-like or
// completion status additionally stamps the matching timestamp.
func (s *Store[P]) PromoteStatus(id string, next Status) (Status, error) {
	if !s.cfg.knownStatus(next) {
		return "", fmt.Errorf("%w: unknown status %q for feed %q", ErrInvalidArgument, next, s.cfg.Feed)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	var previous Status
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRow(
			`SELECT status FROM `+s.cfg.Table+` WHERE id = ?`, id,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to read record status: %w", err)
		}

		previous = Status(current)
		if !s.cfg.transitionAllowed(previous, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, previous, next)
		}

		now := time.Now().UTC().UnixMilli()
		switch next {
		case s.cfg.ApprovedStatus:
			_, err = tx.Exec(
				`UPDATE `+s.cfg.Table+` SET status = ?, approved_at = ? WHERE id = ?`,
				string(next), now, id,
			)
		case s.cfg.CompletedStatus:
			_, err = tx.Exec(
				`UPDATE `+s.cfg.Table+` SET status = ?, completed_at = ? WHERE id = ?`,
				string(next), now, id,
			)
		default:
			_, err = tx.Exec(
				`UPDATE `+s.cfg.Table+` SET status = ? WHERE id = ?`,
				string(next), id,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("id", id).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("Status promoted")

	return previous, nil
}

// Resolve records an observed outcome against a record, computes the derived
// correctness / P&L via the feed's derive function, and stamps resolved_at.
// The transition is one-way: resolving an already-resolved record fails with
// ErrAlreadyResolved and leaves the stored resolution untouched.
func (s *Store[P]) Resolve(id string, outcome string) (*Resolution, error) {
	if s.cfg.Derive == nil {
		return nil, fmt.Errorf("%w: feed %q has no resolution stage", ErrInvalidArgument, s.cfg.Feed)
	}
	if outcome == "" {
		return nil, fmt.Errorf("%w: outcome is required", ErrInvalidArgument)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	var resolution Resolution

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		row := tx.QueryRow(
			`SELECT `+recordColumns+` FROM `+s.cfg.Table+` WHERE id = ?`, id,
		)
		rec, err := s.scanRecordRow(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		if rec.Resolved() {
			return fmt.Errorf("%w: %s", ErrAlreadyResolved, id)
		}

		derived, err := s.cfg.Derive(rec, outcome)
		if err != nil {
			return err
		}

		resolvedAt := time.Now().UTC()
		resolution = Resolution{
			Correct:    derived.Correct,
			ProfitLoss: derived.ProfitLoss,
			Matched:    derived.Matched,
			ResolvedAt: resolvedAt,
		}

		_, err = tx.Exec(
			`UPDATE `+s.cfg.Table+`
			 SET status = ?, resolved_at = ?, outcome = ?, correct = ?, profit_loss = ?
			 WHERE id = ?`,
			string(StatusResolved),
			resolvedAt.UnixMilli(),
			outcome,
			nullBool(derived.Correct),
			nullFloat64(derived.ProfitLoss),
			id,
		)
		if err != nil {
			return fmt.Errorf("failed to store resolution: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("id", id).
		Str("outcome", outcome).
		Bool("matched", resolution.Matched).
		Msg("Record resolved")

	return &resolution, nil
}

// ClearPeriod deletes all records of one period regardless of status.
// This is the administrative clear; refreshes only ever remove pending records.
func (s *Store[P]) ClearPeriod(periodKey string) (int, error) {
	if periodKey == "" {
		return 0, fmt.Errorf("%w: period key is required", ErrInvalidArgument)
	}

	unlock := s.locks.lock(periodKey)
	defer unlock()

	res, err := s.db.Exec(`DELETE FROM `+s.cfg.Table+` WHERE period_key = ?`, periodKey)
	if err != nil {
		return 0, fmt.Errorf("failed to clear period: %w", err)
	}

	n, _ := res.RowsAffected()
	s.log.Info().Str("period_key", periodKey).Int64("deleted", n).Msg("Period cleared")
	return int(n), nil
}

// ClearAll deletes every record of the feed
func (s *Store[P]) ClearAll() (int, error) {
	res, err := s.db.Exec(`DELETE FROM ` + s.cfg.Table)
	if err != nil {
		return 0, fmt.Errorf("failed to clear feed: %w", err)
	}

	n, _ := res.RowsAffected()
	s.log.Warn().Int64("deleted", n).Msg("Feed cleared")
	return int(n), nil
}

// Count returns the total number of stored records
func (s *Store[P]) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + s.cfg.Table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan logic
type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store[P]) scanRecord(rows *sql.Rows) (Record[P], error) {
	return s.scan(rows)
}

func (s *Store[P]) scanRecordRow(row *sql.Row) (Record[P], error) {
	return s.scan(row)
}

func (s *Store[P]) scan(sc scanner) (Record[P], error) {
	var rec Record[P]
	var naturalKey, outcome sql.NullString
	var payloadJSON string
	var status string
	var createdAt int64
	var approvedAt, completedAt, resolvedAt sql.NullInt64
	var correct sql.NullBool
	var profitLoss sql.NullFloat64

	err := sc.Scan(
		&rec.ID,
		&rec.PeriodKey,
		&naturalKey,
		&payloadJSON,
		&status,
		&rec.Rank,
		&createdAt,
		&approvedAt,
		&completedAt,
		&resolvedAt,
		&outcome,
		&correct,
		&profitLoss,
	)
	if err != nil {
		return rec, err
	}

	if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
		return rec, fmt.Errorf("failed to decode payload: %w", err)
	}

	rec.Status = Status(status)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()

	if naturalKey.Valid {
		rec.NaturalKey = naturalKey.String
	}
	if approvedAt.Valid {
		t := time.UnixMilli(approvedAt.Int64).UTC()
		rec.ApprovedAt = &t
	}
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		rec.CompletedAt = &t
	}
	if resolvedAt.Valid {
		t := time.UnixMilli(resolvedAt.Int64).UTC()
		rec.ResolvedAt = &t
	}
	if outcome.Valid {
		rec.Outcome = outcome.String
	}
	if correct.Valid {
		v := correct.Bool
		rec.Correct = &v
	}
	if profitLoss.Valid {
		v := profitLoss.Float64
		rec.ProfitLoss = &v
	}

	return rec, nil
}

// Helper functions

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
