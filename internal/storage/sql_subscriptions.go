package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"substack/internal/core"
)

const subscriptionColumns = `id, user_id, name, cost, currency, billing_cycle, next_billing_date,
	category, category_id, reminder_days_before, created_at, updated_at, status,
	cancelled_at, cancellation_reason, cancellation_effective_date, deleted_at,
	was_free_trial, last_used_at`

var sortColumns = map[string]string{
	SortNextBillingDate: "next_billing_date",
	SortName:            "name",
	SortCost:            "cost",
	SortCreatedAt:       "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		s                   core.Subscription
		cycle, status       string
		nextBilling         time.Time
		category, reason    sql.NullString
		categoryID          sql.NullInt64
		cancelledAt         sql.NullTime
		effective           sql.NullTime
		deletedAt, lastUsed sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Cost, &s.Currency, &cycle, &nextBilling,
		&category, &categoryID, &s.ReminderDaysBefore, &s.CreatedAt, &s.UpdatedAt, &status,
		&cancelledAt, &reason, &effective, &deletedAt,
		&s.WasFreeTrial, &lastUsed)
	if err != nil {
		return core.Subscription{}, err
	}

	s.BillingCycle = core.BillingCycle(cycle)
	s.Status = core.Status(status)
	s.NextBillingDate = core.DateOf(nextBilling)
	s.Category = stringPtr(category)
	s.CategoryID = int64Ptr(categoryID)
	s.CreatedAt = utc(s.CreatedAt)
	s.UpdatedAt = utc(s.UpdatedAt)
	s.CancelledAt = timePtr(cancelledAt)
	s.CancellationReason = stringPtr(reason)
	if effective.Valid {
		d := core.DateOf(effective.Time)
		s.CancellationEffectiveDate = &d
	}
	s.DeletedAt = timePtr(deletedAt)
	s.LastUsedAt = timePtr(lastUsed)
	return s, nil
}

func subscriptionArgs(s core.Subscription) []any {
	var effective sql.NullTime
	if s.CancellationEffectiveDate != nil {
		effective = sql.NullTime{Time: s.CancellationEffectiveDate.Time, Valid: true}
	}
	return []any{
		s.Name, s.Cost, s.Currency, string(s.BillingCycle), s.NextBillingDate.Time,
		nullString(s.Category), nullInt64(s.CategoryID), s.ReminderDaysBefore,
		utc(s.CreatedAt), utc(s.UpdatedAt), string(s.Status),
		nullTime(s.CancelledAt), nullString(s.CancellationReason), effective,
		nullTime(s.DeletedAt), s.WasFreeTrial, nullTime(s.LastUsedAt),
	}
}

func (s *SQLStore) CreateSubscription(ctx context.Context, sub *core.Subscription) error {
	args := append([]any{sub.UserID}, subscriptionArgs(*sub)...)
	id, err := s.insert(ctx, `INSERT INTO subscriptions (user_id, name, cost, currency, billing_cycle,
		next_billing_date, category, category_id, reminder_days_before, created_at, updated_at,
		status, cancelled_at, cancellation_reason, cancellation_effective_date, deleted_at,
		was_free_trial, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	sub.ID = id
	return nil
}

func (s *SQLStore) GetSubscription(ctx context.Context, userID, id int64) (core.Subscription, error) {
	row := s.queryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	sub, err := scanSubscription(row)
	if err != nil {
		return core.Subscription{}, notFound(err, fmt.Sprintf("subscription %d", id))
	}
	return sub, nil
}

func (s *SQLStore) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	args := append(subscriptionArgs(sub), sub.ID, sub.UserID)
	res, err := s.exec(ctx, `UPDATE subscriptions SET name = ?, cost = ?, currency = ?, billing_cycle = ?,
		next_billing_date = ?, category = ?, category_id = ?, reminder_days_before = ?,
		created_at = ?, updated_at = ?, status = ?, cancelled_at = ?, cancellation_reason = ?,
		cancellation_effective_date = ?, deleted_at = ?, was_free_trial = ?, last_used_at = ?
		WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update subscription %d: %w", sub.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription %d: %w", sub.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListSubscriptions(ctx context.Context, userID int64, f SubscriptionFilter) ([]core.Subscription, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}

	where := []string{"user_id = ?"}
	args := []any{userID}
	if !f.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	switch f.Status {
	case StatusFilterActive, StatusFilterCancelled:
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		where = append(where, `LOWER(name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if f.BillingCycle != "" {
		where = append(where, "billing_cycle = ?")
		args = append(args, string(f.BillingCycle))
	}
	if f.CostMin != nil {
		where = append(where, "cost >= ?")
		args = append(args, *f.CostMin)
	}
	if f.CostMax != nil {
		where = append(where, "cost <= ?")
		args = append(args, *f.CostMax)
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	} else if f.Category != nil {
		where = append(where, "category = ?")
		args = append(args, *f.Category)
	}

	order := "ASC"
	if f.Order == OrderDesc {
		order = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s ORDER BY %s %s, id ASC`,
		subscriptionColumns, strings.Join(where, " AND "), sortColumns[f.Sort], order)

	return s.listSubscriptions(ctx, query, args...)
}

func (s *SQLStore) AllSubscriptions(ctx context.Context, userID int64) ([]core.Subscription, error) {
	return s.listSubscriptions(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ? ORDER BY id`, userID)
}

func (s *SQLStore) ActiveSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	return s.listSubscriptions(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = 'active' AND deleted_at IS NULL ORDER BY id`)
}

func (s *SQLStore) listSubscriptions(ctx context.Context, query string, args ...any) ([]core.Subscription, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ReassignCategory(ctx context.Context, userID, fromID, toID int64, at time.Time) (int, error) {
	res, err := s.exec(ctx, `UPDATE subscriptions SET category_id = ?, updated_at = ?
		WHERE user_id = ? AND category_id = ? AND deleted_at IS NULL`, toID, utc(at), userID, fromID)
	if err != nil {
		return 0, fmt.Errorf("reassign category %d: %w", fromID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) CountByCategory(ctx context.Context, userID int64) (map[int64]int, error) {
	rows, err := s.query(ctx, `SELECT category_id, COUNT(*) FROM subscriptions
		WHERE user_id = ? AND deleted_at IS NULL AND category_id IS NOT NULL
		GROUP BY category_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
