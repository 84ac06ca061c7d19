package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"substack/internal/cache"
	"substack/internal/core"
	"substack/internal/storage"
)

type (
	CategoryView struct {
		core.Category
		SubscriptionCount int `json:"subscription_count"`
	}

	CategoryList struct {
		Items            []CategoryView `json:"items"`
		TotalCount       int            `json:"total_count"`
		CustomCount      int            `json:"custom_count"`
		MaxCustomAllowed int            `json:"max_custom_allowed"`
	}

	CreateCategoryInput struct {
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	UpdateCategoryInput struct {
		Name  *string `json:"name"`
		Icon  *string `json:"icon"`
		Color *string `json:"color"`
	}
)

// CategoryService manages system and custom categories. Listings are cached
// per user and dropped on every write that can change them.
type CategoryService struct {
	store storage.Store
	clock Clock
	cache cache.Cache[CategoryList]
}

func NewCategoryService(store storage.Store, clock Clock, c cache.Cache[CategoryList]) *CategoryService {
	if clock == nil {
		clock = SystemClock
	}
	return &CategoryService{store: store, clock: clock, cache: c}
}

func categoryCacheKey(userID int64) string {
	return "categories:" + strconv.FormatInt(userID, 10)
}

// Invalidate drops the cached listing of userID. Subscription writes that
// move a subscription between categories call it too.
func (s *CategoryService) Invalidate(userID int64) {
	if s.cache != nil {
		s.cache.Delete(categoryCacheKey(userID))
	}
}

// List returns system categories plus the user's custom ones with
// per-category subscription counts.
func (s *CategoryService) List(ctx context.Context, userID int64) (CategoryList, error) {
	key := categoryCacheKey(userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return CategoryList{}, fmt.Errorf("list categories: %w", err)
	}
	counts, err := s.store.CountByCategory(ctx, userID)
	if err != nil {
		return CategoryList{}, fmt.Errorf("count subscriptions by category: %w", err)
	}

	out := CategoryList{
		Items:            make([]CategoryView, 0, len(cats)),
		TotalCount:       len(cats),
		MaxCustomAllowed: core.MaxCustomCategories,
	}
	for _, c := range cats {
		if !c.IsSystem {
			out.CustomCount++
		}
		out.Items = append(out.Items, CategoryView{Category: c, SubscriptionCount: counts[c.ID]})
	}

	if s.cache != nil {
		s.cache.Set(key, out)
	}
	return out, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (CategoryView, error) {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return CategoryView{}, fmt.Errorf("get category: %w", err)
	}
	return s.view(ctx, userID, c)
}

func (s *CategoryService) view(ctx context.Context, userID int64, c core.Category) (CategoryView, error) {
	counts, err := s.store.CountByCategory(ctx, userID)
	if err != nil {
		return CategoryView{}, fmt.Errorf("count subscriptions by category: %w", err)
	}
	return CategoryView{Category: c, SubscriptionCount: counts[c.ID]}, nil
}

// nameTaken reports whether name collides, case-insensitively, with a visible
// category other than exceptID.
func nameTaken(cats []core.Category, name string, exceptID int64) bool {
	for _, c := range cats {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func categoryExists(name string) error {
	return &ConflictError{Msg: fmt.Sprintf("Category '%s' already exists", name)}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in CreateCategoryInput) (CategoryView, error) {
	name := strings.TrimSpace(in.Name)
	if err := core.ValidateCategoryName(name); err != nil {
		return CategoryView{}, err
	}
	if err := core.ValidateIcon(in.Icon); err != nil {
		return CategoryView{}, err
	}
	color, err := core.NormalizeColor(in.Color)
	if err != nil {
		return CategoryView{}, err
	}

	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return CategoryView{}, fmt.Errorf("list categories: %w", err)
	}
	custom := 0
	for _, c := range cats {
		if !c.IsSystem {
			custom++
		}
	}
	if custom >= core.MaxCustomCategories {
		return CategoryView{}, ErrCategoryLimit
	}
	if nameTaken(cats, name, 0) {
		return CategoryView{}, categoryExists(name)
	}

	now := s.clock()
	owner := userID
	c := core.Category{
		UserID:       &owner,
		Name:         name,
		Icon:         in.Icon,
		Color:        color,
		DisplayOrder: core.CustomCategoryOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return CategoryView{}, categoryExists(name)
		}
		return CategoryView{}, fmt.Errorf("create category: %w", err)
	}
	s.Invalidate(userID)

	slog.InfoContext(ctx, "Category created", "user_id", userID, "category_id", c.ID, "name", c.Name)
	return CategoryView{Category: c}, nil
}

// Update renames custom categories and recolors or re-icons any visible one.
func (s *CategoryService) Update(ctx context.Context, userID, id int64, in UpdateCategoryInput) (CategoryView, error) {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return CategoryView{}, fmt.Errorf("get category: %w", err)
	}

	if in.Name != nil {
		if c.IsSystem {
			return CategoryView{}, ErrRenameSystemCategory
		}
		name := strings.TrimSpace(*in.Name)
		if err := core.ValidateCategoryName(name); err != nil {
			return CategoryView{}, err
		}
		if !strings.EqualFold(name, c.Name) {
			cats, err := s.store.ListCategories(ctx, userID)
			if err != nil {
				return CategoryView{}, fmt.Errorf("list categories: %w", err)
			}
			if nameTaken(cats, name, c.ID) {
				return CategoryView{}, categoryExists(name)
			}
		}
		c.Name = name
	}
	if in.Icon != nil {
		if err := core.ValidateIcon(*in.Icon); err != nil {
			return CategoryView{}, err
		}
		c.Icon = *in.Icon
	}
	if in.Color != nil {
		color, err := core.NormalizeColor(*in.Color)
		if err != nil {
			return CategoryView{}, err
		}
		c.Color = color
	}

	c.UpdatedAt = s.clock()
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return CategoryView{}, fmt.Errorf("update category: %w", err)
	}
	s.Invalidate(userID)
	return s.view(ctx, userID, c)
}

// Delete soft-deletes a custom category after moving its subscriptions to
// the system "Other" category.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if c.IsSystem {
		return ErrDeleteSystemCategory
	}

	other, err := s.store.SystemCategory(ctx, core.OtherCategoryName)
	if err != nil {
		return fmt.Errorf("find %q category: %w", core.OtherCategoryName, err)
	}

	now := s.clock()
	moved, err := s.store.ReassignCategory(ctx, userID, c.ID, other.ID, now)
	if err != nil {
		return fmt.Errorf("reassign subscriptions: %w", err)
	}

	c.DeletedAt = &now
	c.UpdatedAt = now
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.Invalidate(userID)

	slog.InfoContext(ctx, "Category deleted",
		"user_id", userID,
		"category_id", c.ID,
		"reassigned_subscriptions", moved)
	return nil
}

// Icons returns the allowed icon names, sorted.
func Icons() []string {
	icons := make([]string, 0, len(core.CategoryIcons))
	for icon := range core.CategoryIcons {
		icons = append(icons, icon)
	}
	sort.Strings(icons)
	return icons
}
