package businessrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ Repo = (*SQLiteRepo)(nil)

// SQLiteRepo keeps each business as a JSON document keyed by id. seq preserves
// insertion order for paging.
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo opens (and migrates) the database at dsn. ":memory:" is
// accepted and pinned to a single connection.
func NewSQLiteRepo(dsn string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteRepo] open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS businesses (
		id      TEXT PRIMARY KEY,
		seq     INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[SQLiteRepo] create businesses table: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) List(ctx context.Context, page, limit int) (*business.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&total); err != nil {
		return nil, fmt.Errorf("[SQLiteRepo List] count: %w", err)
	}

	data := []business.Business{}
	offset, ok := pageOffset(page, limit, total)
	if !ok {
		return newPage(data, page, limit, total), nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM businesses ORDER BY seq LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("[SQLiteRepo List] select: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("[SQLiteRepo List] scan: %w", err)
		}
		var b business.Business
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("[SQLiteRepo List] decode: %w", err)
		}
		data = append(data, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[SQLiteRepo List] rows: %w", err)
	}

	return newPage(data, page, limit, total), nil
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (*business.Business, error) {
	return get(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q queryer, id string) (*business.Business, error) {
	var payload []byte
	err := q.QueryRowContext(ctx, `SELECT payload FROM businesses WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBusinessNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("[SQLiteRepo Get] %w", err)
	}
	var b business.Business
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("[SQLiteRepo Get] decode: %w", err)
	}
	return &b, nil
}

func (r *SQLiteRepo) Upsert(ctx context.Context, b *business.Business) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("[SQLiteRepo Upsert] encode: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO businesses (id, seq, payload)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM businesses), ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`, b.ID, payload)
	if err != nil {
		return fmt.Errorf("[SQLiteRepo Upsert] %w", err)
	}
	return nil
}

func (r *SQLiteRepo) UpdateBranchStatus(ctx context.Context, businessID, branchID string, status business.BranchStatus) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		b, err := get(ctx, tx, businessID)
		if err != nil {
			return err
		}
		if err := setBranchStatus(b, branchID, status); err != nil {
			return err
		}
		return save(ctx, tx, b)
	})
}

func (r *SQLiteRepo) DeleteBranch(ctx context.Context, branchID string, at time.Time) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT payload FROM businesses ORDER BY seq`)
		if err != nil {
			return fmt.Errorf("[SQLiteRepo DeleteBranch] select: %w", err)
		}
		var changed []*business.Business
		for rows.Next() {
			var payload []byte
			if err := rows.Scan(&payload); err != nil {
				_ = rows.Close()
				return fmt.Errorf("[SQLiteRepo DeleteBranch] scan: %w", err)
			}
			b := &business.Business{}
			if err := json.Unmarshal(payload, b); err != nil {
				_ = rows.Close()
				return fmt.Errorf("[SQLiteRepo DeleteBranch] decode: %w", err)
			}
			if markBranchDeleted(b, branchID, at) {
				changed = append(changed, b)
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if len(changed) == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrBranchNotFound, branchID)
		}
		for _, b := range changed {
			if err := save(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepo) DeleteBusiness(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("[SQLiteRepo DeleteBusiness] %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrBusinessNotFound, id)
	}
	return nil
}

func save(ctx context.Context, tx *sql.Tx, b *business.Business) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("[SQLiteRepo] encode: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE businesses SET payload = ? WHERE id = ?`, payload, b.ID); err != nil {
		return fmt.Errorf("[SQLiteRepo] update %s: %w", b.ID, err)
	}
	return nil
}

func (r *SQLiteRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("[SQLiteRepo] begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
