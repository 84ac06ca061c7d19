package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"substack/internal/core"
)

const categoryColumns = `id, user_id, name, icon, color, is_system, display_order, created_at, updated_at, deleted_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c         core.Category
		userID    sql.NullInt64
		deletedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &userID, &c.Name, &c.Icon, &c.Color, &c.IsSystem, &c.DisplayOrder,
		&c.CreatedAt, &c.UpdatedAt, &deletedAt); err != nil {
		return core.Category{}, err
	}
	c.UserID = int64Ptr(userID)
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
	c.DeletedAt = timePtr(deletedAt)
	return c, nil
}

func (s *SQLStore) SeedSystemCategories(ctx context.Context, cats []core.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, c := range cats {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM categories WHERE is_system = ? AND name = ?`),
			true, c.Name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check system category %q: %w", c.Name, err)
		}
		if exists > 0 {
			continue
		}
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO categories
			(user_id, name, icon, color, is_system, display_order, created_at, updated_at)
			VALUES (NULL, ?, ?, ?, ?, ?, ?, ?)`),
			c.Name, c.Icon, c.Color, true, c.DisplayOrder, now, now)
		if err != nil {
			return fmt.Errorf("insert system category %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := s.query(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE deleted_at IS NULL AND (is_system = ? OR user_id = ?)
		ORDER BY display_order, name`, true, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	row := s.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE id = ? AND deleted_at IS NULL AND (is_system = ? OR user_id = ?)`, id, true, userID)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, fmt.Sprintf("category %d", id))
	}
	return c, nil
}

func (s *SQLStore) SystemCategory(ctx context.Context, name string) (core.Category, error) {
	row := s.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE is_system = ? AND name = ? AND deleted_at IS NULL`, true, name)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, fmt.Sprintf("system category %q", name))
	}
	return c, nil
}

func (s *SQLStore) CreateCategory(ctx context.Context, c *core.Category) error {
	id, err := s.insert(ctx, `INSERT INTO categories
		(user_id, name, icon, color, is_system, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(c.UserID), c.Name, c.Icon, c.Color, c.IsSystem, c.DisplayOrder, utc(c.CreatedAt), utc(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return nil
}

func (s *SQLStore) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := s.exec(ctx, `UPDATE categories SET name = ?, icon = ?, color = ?, display_order = ?,
		updated_at = ?, deleted_at = ? WHERE id = ?`,
		c.Name, c.Icon, c.Color, c.DisplayOrder, utc(c.UpdatedAt), nullTime(c.DeletedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) CreateReminderLog(ctx context.Context, l *core.ReminderLog) error {
	id, err := s.insert(ctx, `INSERT INTO reminder_logs
		(user_id, subscription_id, reminder_type, scheduled_for, sent_at, status, error_message, email_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.SubscriptionID, l.ReminderType, utc(l.ScheduledFor), utc(l.SentAt), l.Status,
		nullString(l.ErrorMessage), nullString(l.EmailID))
	if err != nil {
		return fmt.Errorf("create reminder log: %w", err)
	}
	l.ID = id
	return nil
}

func (s *SQLStore) ReminderExists(ctx context.Context, subscriptionID int64, scheduledFor time.Time, statuses ...string) (bool, error) {
	query := `SELECT COUNT(*) FROM reminder_logs WHERE subscription_id = ? AND scheduled_for = ?`
	args := []any{subscriptionID, utc(scheduledFor)}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	var n int
	if err := s.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check reminder log: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) ListReminderLogs(ctx context.Context, userID int64, limit, offset int) ([]core.ReminderLog, error) {
	rows, err := s.query(ctx, `SELECT id, user_id, subscription_id, reminder_type, scheduled_for, sent_at,
		status, error_message, email_id FROM reminder_logs WHERE user_id = ?
		ORDER BY sent_at DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reminder logs: %w", err)
	}
	defer rows.Close()

	out := make([]core.ReminderLog, 0)
	for rows.Next() {
		var (
			l               core.ReminderLog
			errMsg, emailID sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.SubscriptionID, &l.ReminderType, &l.ScheduledFor,
			&l.SentAt, &l.Status, &errMsg, &emailID); err != nil {
			return nil, fmt.Errorf("scan reminder log: %w", err)
		}
		l.ScheduledFor = utc(l.ScheduledFor)
		l.SentAt = utc(l.SentAt)
		l.ErrorMessage = stringPtr(errMsg)
		l.EmailID = stringPtr(emailID)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountReminderLogs(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM reminder_logs WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reminder logs: %w", err)
	}
	return n, nil
}

const userColumns = `id, email, hashed_password, created_at, email_notifications_enabled,
	push_notifications_enabled, timezone`

func scanUser(row rowScanner) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.CreatedAt,
		&u.EmailNotificationsEnabled, &u.PushNotificationsEnabled, &u.Timezone)
	u.CreatedAt = utc(u.CreatedAt)
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, u *core.User) error {
	id, err := s.insert(ctx, `INSERT INTO users (email, hashed_password, created_at,
		email_notifications_enabled, push_notifications_enabled, timezone)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.HashedPassword, utc(u.CreatedAt), u.EmailNotificationsEnabled,
		u.PushNotificationsEnabled, u.Timezone)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", u.Email, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return core.User{}, notFound(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = ?`, strings.ToLower(email)))
	if err != nil {
		return core.User{}, notFound(err, fmt.Sprintf("user %q", email))
	}
	return u, nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, u core.User) error {
	res, err := s.exec(ctx, `UPDATE users SET email_notifications_enabled = ?, push_notifications_enabled = ?,
		timezone = ?, hashed_password = ? WHERE id = ?`,
		u.EmailNotificationsEnabled, u.PushNotificationsEnabled, u.Timezone, u.HashedPassword, u.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	return nil
}
