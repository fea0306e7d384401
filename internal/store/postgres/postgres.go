// Package postgres implements store.Repository on PostgreSQL. Every
// multi-entity mutation runs inside one serializable transaction; the store
// is the only place the atomic-unit contract is enforced.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(ctx context.Context, databaseURL string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates all tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// appendInventoryLogTx inserts an audit row inside the caller's transaction.
// The insert runs under a savepoint: on failure the savepoint is rolled back,
// a warning is logged and nil is returned, leaving the parent mutation intact.
func (s *Store) appendInventoryLogTx(ctx context.Context, tx *sql.Tx, entry domain.InventoryLog) *domain.InventoryLog {
	if _, err := tx.ExecContext(ctx, `SAVEPOINT inv_log`); err != nil {
		s.logger.Warn().Err(err).Msg("inventory log savepoint failed")
		return nil
	}

	saved, err := insertInventoryLog(ctx, tx, entry)
	if err != nil {
		_, _ = tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT inv_log`)
		s.logger.Warn().Err(err).Str("action", entry.Action).Str("product", entry.ProductName).
			Msg("inventory log append failed; primary mutation kept")
		return nil
	}

	_, _ = tx.ExecContext(ctx, `RELEASE SAVEPOINT inv_log`)
	return saved
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertInventoryLog(ctx context.Context, q execer, entry domain.InventoryLog) (*domain.InventoryLog, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := q.QueryRowContext(ctx, `
		INSERT INTO inventory_logs (
			product_id, product_name, action, detail, stock, old_price, new_price,
			category, user_id, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, strOrNil(entry.ProductID), entry.ProductName, entry.Action, nullIfEmpty(entry.Detail),
		intOrNil(entry.Stock), decOrNil(entry.OldPrice), decOrNil(entry.NewPrice),
		nullIfEmpty(entry.Category), int64OrNil(entry.UserID), entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) AppendInventoryLog(ctx context.Context, entry domain.InventoryLog) (*domain.InventoryLog, error) {
	return insertInventoryLog(ctx, s.db, entry)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// classify maps row-level failures onto the store error taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isUniqueViolation(err):
		return store.ErrConflict
	case isForeignKeyViolation(err):
		return store.ErrNotFound
	default:
		return err
	}
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func strOrNil(val *string) any {
	if val == nil || *val == "" {
		return nil
	}
	return *val
}

func int64OrNil(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}

func intOrNil(val *int) any {
	if val == nil {
		return nil
	}
	return *val
}

func decOrNil(val *decimal.Decimal) any {
	if val == nil {
		return nil
	}
	return *val
}

func timeOrNil(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func jsonOrNil(val any) (any, error) {
	if val == nil {
		return nil, nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func unmarshalInto(raw []byte, dest any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dest)
}

func scanNullStr(val sql.NullString) string {
	if val.Valid {
		return val.String
	}
	return ""
}

func scanStrPtr(val sql.NullString) *string {
	if val.Valid {
		v := val.String
		return &v
	}
	return nil
}

func scanInt64Ptr(val sql.NullInt64) *int64 {
	if val.Valid {
		v := val.Int64
		return &v
	}
	return nil
}

func scanIntPtr(val sql.NullInt64) *int {
	if val.Valid {
		v := int(val.Int64)
		return &v
	}
	return nil
}

func scanTimePtr(val sql.NullTime) *time.Time {
	if val.Valid {
		v := val.Time.UTC()
		return &v
	}
	return nil
}

func scanDecPtr(val sql.NullString) *decimal.Decimal {
	if !val.Valid {
		return nil
	}
	dec, err := decimal.NewFromString(val.String)
	if err != nil {
		return nil
	}
	return &dec
}
