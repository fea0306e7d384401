package postgres

import (
	"context"
	"database/sql"
	"time"

	"cafepos/backend/internal/domain"
	"cafepos/backend/internal/store"
)

const userColumns = `id, school_id, username, full_name, role, password_hash,
	password_changed_at, COALESCE(program, ''), COALESCE(section, ''),
	COALESCE(sex, ''), COALESCE(avatar_url, ''), last_login`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		user              domain.User
		passwordChangedAt sql.NullTime
		lastLogin         sql.NullTime
	)
	err := row.Scan(&user.ID, &user.SchoolID, &user.Username, &user.FullName,
		&user.Role, &user.PasswordHash, &passwordChangedAt,
		&user.Program, &user.Section, &user.Sex, &user.AvatarURL, &lastLogin)
	if err != nil {
		return nil, classify(err)
	}
	user.PasswordChangedAt = scanTimePtr(passwordChangedAt)
	user.LastLogin = scanTimePtr(lastLogin)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	return scanUser(row)
}

// UpsertUsersByUsername inserts or refreshes the whole batch in one
// transaction. Username is the natural key; an existing row keeps its id and
// takes the imported profile and password.
func (s *Store) UpsertUsersByUsername(ctx context.Context, users []domain.User) ([]domain.User, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]domain.User, 0, len(users))
	for _, user := range users {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (school_id, username, full_name, role, password_hash, program, section, sex, avatar_url)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (username) DO UPDATE SET
				school_id = EXCLUDED.school_id,
				full_name = EXCLUDED.full_name,
				role = EXCLUDED.role,
				password_hash = EXCLUDED.password_hash,
				program = EXCLUDED.program,
				section = EXCLUDED.section,
				sex = EXCLUDED.sex,
				updated_at = now()
			RETURNING id
		`, user.SchoolID, user.Username, user.FullName, user.Role, user.PasswordHash,
			nullIfEmpty(user.Program), nullIfEmpty(user.Section), nullIfEmpty(user.Sex),
			nullIfEmpty(user.AvatarURL)).Scan(&user.ID)
		if err != nil {
			return nil, classify(err)
		}
		saved = append(saved, user)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, password_changed_at = $3, updated_at = now()
		WHERE id = $1
	`, id, passwordHash, changedAt)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_alert_states WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notification_reads WHERE user_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

// RecordLogin stamps last_login and clears both per-user cursors so the new
// session re-evaluates alerts and notifications from scratch.
func (s *Store) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET last_login = $2, updated_at = now() WHERE id = $1`, userID, at)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM stock_alert_states WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM notification_reads WHERE user_id = $1`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetStockAlertState(ctx context.Context, userID int64) (*domain.StockAlertState, error) {
	var state domain.StockAlertState
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, signature, updated_at FROM stock_alert_states WHERE user_id = $1
	`, userID).Scan(&state.UserID, &state.Signature, &state.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	state.UpdatedAt = state.UpdatedAt.UTC()
	return &state, nil
}

func (s *Store) SetStockAlertState(ctx context.Context, userID int64, signature string) (*domain.StockAlertState, error) {
	var state domain.StockAlertState
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stock_alert_states (user_id, signature, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET signature = EXCLUDED.signature, updated_at = now()
		RETURNING user_id, signature, updated_at
	`, userID, signature).Scan(&state.UserID, &state.Signature, &state.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	state.UpdatedAt = state.UpdatedAt.UTC()
	return &state, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID int64, key string) (*domain.NotificationRead, error) {
	var read domain.NotificationRead
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notification_reads (user_id, notification_key, read_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id, notification_key) DO UPDATE SET read_at = notification_reads.read_at
		RETURNING user_id, notification_key, read_at
	`, userID, key).Scan(&read.UserID, &read.NotificationKey, &read.ReadAt)
	if err != nil {
		return nil, classify(err)
	}
	read.ReadAt = read.ReadAt.UTC()
	return &read, nil
}
