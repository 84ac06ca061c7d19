package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"substack/internal/cache"
	"substack/internal/core"
	"substack/internal/storage"
)

func newCategoryService(t *testing.T) (*CategoryService, *SubscriptionService, core.User) {
	t.Helper()
	st := newTestStore(t)
	u := newTestUser(t, st, "ada@example.com", true)
	clk := &testClock{now: testNow}

	c, err := cache.NewRistrettoCache[CategoryList](cache.Config{MaxItems: 100, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	cats := NewCategoryService(st, clk.Now, c)
	subs := NewSubscriptionService(st, clk.Now, quietLogger())
	subs.SetCategoryCache(cats)
	return cats, subs, u
}

func TestCategoryService_ListSystemCategories(t *testing.T) {
	svc, _, u := newCategoryService(t)

	list, err := svc.List(context.Background(), u.ID)
	require.NoError(t, err)

	assert.Equal(t, len(core.SystemCategories), list.TotalCount)
	assert.Zero(t, list.CustomCount)
	assert.Equal(t, core.MaxCustomCategories, list.MaxCustomAllowed)
	assert.Equal(t, "Entertainment", list.Items[0].Name)
	assert.Equal(t, core.OtherCategoryName, list.Items[len(list.Items)-1].Name)
}

func TestCategoryService_Create(t *testing.T) {
	svc, _, u := newCategoryService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, u.ID, CreateCategoryInput{Name: "Cloud", Icon: "cloud.fill", Color: "#aabbcc"})
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", created.Color)
	assert.Equal(t, core.CustomCategoryOrder, created.DisplayOrder)
	assert.False(t, created.IsSystem)

	tests := []struct {
		name  string
		in    CreateCategoryInput
		check func(t *testing.T, err error)
	}{
		{"duplicate of custom", CreateCategoryInput{Name: "cloud", Icon: "cloud.fill", Color: "#000000"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, storage.ErrConflict)
			assert.EqualError(t, err, "Category 'cloud' already exists")
		}},
		{"duplicate of system", CreateCategoryInput{Name: "HEALTH", Icon: "heart.fill", Color: "#000000"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, storage.ErrConflict)
		}},
		{"bad icon", CreateCategoryInput{Name: "X", Icon: "nope", Color: "#000000"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, core.ErrInvalidIcon)
		}},
		{"bad color", CreateCategoryInput{Name: "X", Icon: "tag.fill", Color: "red"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, core.ErrInvalidColor)
		}},
		{"empty name", CreateCategoryInput{Name: "  ", Icon: "tag.fill", Color: "#000000"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, core.ErrEmptyCategoryName)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, u.ID, tt.in)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCategoryService_CreateLimit(t *testing.T) {
	svc, _, u := newCategoryService(t)
	ctx := context.Background()

	for i := 0; i < core.MaxCustomCategories; i++ {
		_, err := svc.Create(ctx, u.ID, CreateCategoryInput{Name: fmt.Sprintf("Custom %d", i), Icon: "tag.fill", Color: "#112233"})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, u.ID, CreateCategoryInput{Name: "One too many", Icon: "tag.fill", Color: "#112233"})
	assert.ErrorIs(t, err, ErrCategoryLimit)
	assert.EqualError(t, err, "Maximum of 20 custom categories allowed")
}

func TestCategoryService_UpdateSystemCategory(t *testing.T) {
	svc, _, u := newCategoryService(t)
	ctx := context.Background()

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	system := list.Items[0]

	_, err = svc.Update(ctx, u.ID, system.ID, UpdateCategoryInput{Name: ptr("Fun")})
	assert.ErrorIs(t, err, ErrRenameSystemCategory)

	updated, err := svc.Update(ctx, u.ID, system.ID, UpdateCategoryInput{Color: ptr("#ffffff"), Icon: ptr("film.fill")})
	require.NoError(t, err)
	assert.Equal(t, "#FFFFFF", updated.Color)
	assert.Equal(t, "film.fill", updated.Icon)
	assert.Equal(t, system.Name, updated.Name)
}

func TestCategoryService_UpdateRename(t *testing.T) {
	svc, _, u := newCategoryService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, u.ID, CreateCategoryInput{Name: "News", Icon: "doc.fill", Color: "#123456"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, u.ID, CreateCategoryInput{Name: "Music", Icon: "music.note", Color: "#123456"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, u.ID, a.ID, UpdateCategoryInput{Name: ptr("music")})
	assert.ErrorIs(t, err, storage.ErrConflict)

	renamed, err := svc.Update(ctx, u.ID, a.ID, UpdateCategoryInput{Name: ptr("NEWS")})
	require.NoError(t, err)
	assert.Equal(t, "NEWS", renamed.Name)

	_, err = svc.Update(ctx, u.ID+1, a.ID, UpdateCategoryInput{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCategoryService_DeleteReassignsToOther(t *testing.T) {
	svc, subs, u := newCategoryService(t)
	ctx := context.Background()

	custom, err := svc.Create(ctx, u.ID, CreateCategoryInput{Name: "Games", Icon: "gamecontroller.fill", Color: "#00FF00"})
	require.NoError(t, err)

	in := monthlyInput("Game Pass", 14.99, core.NewDate(2026, 4, 1))
	in.CategoryID = &custom.ID
	sub, err := subs.Create(ctx, u.ID, in)
	require.NoError(t, err)

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.CustomCount)
	for _, c := range list.Items {
		if c.ID == custom.ID {
			assert.Equal(t, 1, c.SubscriptionCount)
		}
	}

	system := list.Items[0]
	err = svc.Delete(ctx, u.ID, system.ID)
	assert.ErrorIs(t, err, ErrDeleteSystemCategory)

	require.NoError(t, svc.Delete(ctx, u.ID, custom.ID))

	_, err = svc.Get(ctx, u.ID, custom.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	err = svc.Delete(ctx, u.ID, custom.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	moved, err := subs.Get(ctx, u.ID, sub.ID)
	require.NoError(t, err)
	other, err := svc.store.SystemCategory(ctx, core.OtherCategoryName)
	require.NoError(t, err)
	require.NotNil(t, moved.CategoryID)
	assert.Equal(t, other.ID, *moved.CategoryID)

	list, err = svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, list.CustomCount)
	assert.Equal(t, 1, list.Items[len(list.Items)-1].SubscriptionCount)
}

func TestCategoryService_SubscriptionWritesInvalidateCache(t *testing.T) {
	svc, subs, u := newCategoryService(t)
	ctx := context.Background()

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	health := list.Items[2]
	assert.Zero(t, health.SubscriptionCount)

	in := monthlyInput("Fitness+", 9.99, core.NewDate(2026, 4, 1))
	in.CategoryID = &health.ID
	_, err = subs.Create(ctx, u.ID, in)
	require.NoError(t, err)

	list, err = svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Items[2].SubscriptionCount)
}

func TestIcons(t *testing.T) {
	icons := Icons()
	assert.Len(t, icons, len(core.CategoryIcons))
	assert.IsNonDecreasing(t, icons)
}
