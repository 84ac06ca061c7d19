package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"substack/internal/core"
	applog "substack/internal/log"
	"substack/internal/storage/memory"
)

// testNow is the fixed reference instant shared by the service tests.
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.SeedSystemCategories(context.Background(), core.SystemCategories))
	return st
}

func newTestUser(t *testing.T, st *memory.Store, email string, emailEnabled bool) core.User {
	t.Helper()
	u := core.User{
		Email:                     email,
		HashedPassword:            "x",
		CreatedAt:                 testNow,
		EmailNotificationsEnabled: emailEnabled,
		PushNotificationsEnabled:  true,
		Timezone:                  core.DefaultTimezone,
	}
	require.NoError(t, st.CreateUser(context.Background(), &u))
	return u
}

func monthlyInput(name string, cost float64, next core.Date) CreateSubscriptionInput {
	return CreateSubscriptionInput{
		Name:            name,
		Cost:            cost,
		Currency:        "USD",
		BillingCycle:    core.Monthly,
		NextBillingDate: next,
	}
}

func ptr[T any](v T) *T { return &v }
