// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"substack/internal/core"
	"substack/internal/storage"
)

type Store struct {
	mu sync.RWMutex

	nextID    int64
	subs      map[int64]core.Subscription
	cats      map[int64]core.Category
	reminders []core.ReminderLog
	users     map[int64]core.User
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		subs:  make(map[int64]core.Subscription),
		cats:  make(map[int64]core.Category),
		users: make(map[int64]core.User),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateSubscription(_ context.Context, sub *core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = s.id()
	s.subs[sub.ID] = clone(*sub)
	return nil
}

func (s *Store) GetSubscription(_ context.Context, userID, id int64) (core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok || sub.UserID != userID {
		return core.Subscription{}, fmt.Errorf("subscription %d: %w", id, storage.ErrNotFound)
	}
	return clone(sub), nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub core.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.subs[sub.ID]
	if !ok || cur.UserID != sub.UserID {
		return fmt.Errorf("subscription %d: %w", sub.ID, storage.ErrNotFound)
	}
	s.subs[sub.ID] = clone(sub)
	return nil
}

func (s *Store) ListSubscriptions(_ context.Context, userID int64, f storage.SubscriptionFilter) ([]core.Subscription, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]core.Subscription, 0)
	for _, sub := range s.subs {
		if sub.UserID == userID && f.Matches(sub) {
			out = append(out, clone(sub))
		}
	}
	s.mu.RUnlock()
	f.SortSubscriptions(out)
	return out, nil
}

func (s *Store) AllSubscriptions(_ context.Context, userID int64) ([]core.Subscription, error) {
	return s.collect(func(sub core.Subscription) bool { return sub.UserID == userID }), nil
}

func (s *Store) ActiveSubscriptions(context.Context) ([]core.Subscription, error) {
	return s.collect(core.Subscription.IsCurrentlyActive), nil
}

// collect returns matching subscriptions ordered by id.
func (s *Store) collect(keep func(core.Subscription) bool) []core.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Subscription, 0)
	for _, sub := range s.subs {
		if keep(sub) {
			out = append(out, clone(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ReassignCategory(_ context.Context, userID, fromID, toID int64, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sub := range s.subs {
		if sub.UserID != userID || sub.DeletedAt != nil || sub.CategoryID == nil || *sub.CategoryID != fromID {
			continue
		}
		to := toID
		sub.CategoryID = &to
		sub.UpdatedAt = at
		s.subs[id] = sub
		n++
	}
	return n, nil
}

func (s *Store) CountByCategory(_ context.Context, userID int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int64]int)
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.DeletedAt == nil && sub.CategoryID != nil {
			counts[*sub.CategoryID]++
		}
	}
	return counts, nil
}

func (s *Store) SeedSystemCategories(_ context.Context, cats []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]struct{})
	for _, c := range s.cats {
		if c.IsSystem {
			existing[c.Name] = struct{}{}
		}
	}
	for _, c := range cats {
		if _, ok := existing[c.Name]; ok {
			continue
		}
		c.ID = s.id()
		c.UserID = nil
		c.IsSystem = true
		s.cats[c.ID] = c
	}
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.RLock()
	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		if visible(c, userID) {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, userID, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok || !visible(c, userID) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) SystemCategory(_ context.Context, name string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cats {
		if c.IsSystem && c.DeletedAt == nil && c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("system category %q: %w", name, storage.ErrNotFound)
}

func (s *Store) CreateCategory(_ context.Context, c *core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.cats[c.ID] = *c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[c.ID]; !ok {
		return fmt.Errorf("category %d: %w", c.ID, storage.ErrNotFound)
	}
	s.cats[c.ID] = c
	return nil
}

func visible(c core.Category, userID int64) bool {
	if c.DeletedAt != nil {
		return false
	}
	return c.IsSystem || (c.UserID != nil && *c.UserID == userID)
}

func (s *Store) CreateReminderLog(_ context.Context, l *core.ReminderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id()
	s.reminders = append(s.reminders, *l)
	return nil
}

func (s *Store) ReminderExists(_ context.Context, subscriptionID int64, scheduledFor time.Time, statuses ...string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.reminders {
		if l.SubscriptionID != subscriptionID || !l.ScheduledFor.Equal(scheduledFor) {
			continue
		}
		if len(statuses) == 0 || slices.Contains(statuses, l.Status) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListReminderLogs(_ context.Context, userID int64, limit, offset int) ([]core.ReminderLog, error) {
	s.mu.RLock()
	out := make([]core.ReminderLog, 0)
	for _, l := range s.reminders {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.After(out[j].SentAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), nil
}

func (s *Store) CountReminderLogs(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.reminders {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("user %q: %w", u.Email, storage.ErrConflict)
		}
	}
	u.ID = s.id()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", email, storage.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return fmt.Errorf("user %d: %w", u.ID, storage.ErrNotFound)
	}
	s.users[u.ID] = u
	return nil
}

// clone copies the pointer fields so callers cannot mutate stored rows.
func clone(s core.Subscription) core.Subscription {
	s.Category = clonePtr(s.Category)
	s.CategoryID = clonePtr(s.CategoryID)
	s.CancelledAt = clonePtr(s.CancelledAt)
	s.CancellationReason = clonePtr(s.CancellationReason)
	s.CancellationEffectiveDate = clonePtr(s.CancellationEffectiveDate)
	s.DeletedAt = clonePtr(s.DeletedAt)
	s.LastUsedAt = clonePtr(s.LastUsedAt)
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
