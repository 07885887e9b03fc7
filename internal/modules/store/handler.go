// Package store implements the manage-store states: category creation,
// listing, renaming, deletion and the entry into product management.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	domerrors "github.com/garyellow/storebot/internal/errors"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
)

// ModuleName identifies the handler in logs and metrics.
const ModuleName = "store"

// MaxCategoryNameRunes bounds category names.
const MaxCategoryNameRunes = 60

// Manage-store button ids.
const (
	ButtonAddCategory    = "store_add_category"
	ButtonListCategories = "store_list_categories"
	ButtonManageProducts = "store_manage_products"
	ButtonAllProducts    = "store_all_products"

	ButtonRename   = "category_rename"
	ButtonProducts = "category_products"
	ButtonDelete   = "category_delete"
)

// Handler owns the manage-store and category states.
type Handler struct {
	gateway catalog.Gateway
	metrics *metrics.Metrics
	logger  *logger.Logger
	errs    *domerrors.StepWrapper
}

// NewHandler creates a new manage-store handler.
func NewHandler(gateway catalog.Gateway, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		gateway: gateway,
		metrics: m,
		logger:  log,
		errs:    domerrors.NewWrapper(ModuleName, "category"),
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// States returns the states owned by this handler.
func (h *Handler) States() []conversation.State {
	return []conversation.State{
		conversation.StateManageStore,
		conversation.StateAwaitingCategoryName,
		conversation.StateSelectCategory,
		conversation.StateCategoryActions,
		conversation.StateAwaitingCategoryRename,
		conversation.StateSelectProductCategory,
	}
}

// Enter renders the prompt of the current state.
func (h *Handler) Enter(ctx context.Context, t *bot.Turn) error {
	switch t.State() {
	case conversation.StateManageStore:
		t.Say("manageStore_menu", nil,
			t.Button(ButtonAddCategory, "btn_add_category"),
			t.Button(ButtonListCategories, "btn_list_categories"),
			t.Button(ButtonManageProducts, "btn_manage_products"),
		)
		return nil
	case conversation.StateAwaitingCategoryName:
		t.Say("manageStore_askCategoryName", nil)
		return nil
	case conversation.StateSelectCategory:
		return h.promptCategoryList(ctx, t, "manageStore_selectCategory", false)
	case conversation.StateCategoryActions:
		t.Say("manageStore_categoryActions", i18n.Params{"name": t.Context().Category.Name},
			t.Button(ButtonRename, "btn_rename"),
			t.Button(ButtonProducts, "btn_category_products"),
			t.Button(ButtonDelete, "btn_delete"),
		)
		return nil
	case conversation.StateAwaitingCategoryRename:
		t.Say("manageStore_askRename", i18n.Params{"name": t.Context().Category.Name})
		return nil
	case conversation.StateSelectProductCategory:
		return h.promptCategoryList(ctx, t, "manageStore_selectProductCategory", true,
			t.Button(ButtonAllProducts, "btn_all_products"))
	default:
		return fmt.Errorf("store: unexpected state %s", t.State())
	}
}

// Handle processes input for the current state.
func (h *Handler) Handle(ctx context.Context, t *bot.Turn) error {
	switch t.State() {
	case conversation.StateManageStore:
		return h.handleMenu(ctx, t)
	case conversation.StateAwaitingCategoryName:
		return h.handleCreate(ctx, t)
	case conversation.StateSelectCategory:
		return h.handleSelect(ctx, t, conversation.StateCategoryActions)
	case conversation.StateCategoryActions:
		return h.handleActions(ctx, t)
	case conversation.StateAwaitingCategoryRename:
		return h.handleRename(ctx, t)
	case conversation.StateSelectProductCategory:
		// "0" lists the products of the whole store.
		if t.Input.Is("0", ButtonAllProducts) {
			t.Context().ClearFlow()
			return t.Goto(ctx, conversation.StateSelectProduct)
		}
		return h.handleSelect(ctx, t, conversation.StateSelectProduct)
	default:
		return fmt.Errorf("store: unexpected state %s", t.State())
	}
}

func (h *Handler) handleMenu(ctx context.Context, t *bot.Turn) error {
	switch {
	case t.Input.Is("1", ButtonAddCategory):
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateAwaitingCategoryName)
	case t.Input.Is("2", ButtonListCategories):
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateSelectCategory)
	case t.Input.Is("3", ButtonManageProducts):
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateSelectProductCategory)
	default:
		return t.Invalid(ctx)
	}
}

// promptCategoryList numbers the store's top-level categories and remembers
// their ids. Without categories it falls back to the store menu.
func (h *Handler) promptCategoryList(ctx context.Context, t *bot.Turn, key string, withCounts bool, buttons ...conversation.Button) error {
	cats, err := h.gateway.ListCategories(ctx, t.StoreID(), nil)
	if err != nil {
		return h.errs.Wrap(err, "list categories")
	}
	if len(cats) == 0 {
		t.Say("manageStore_noCategories", nil)
		return t.Goto(ctx, conversation.StateManageStore)
	}

	ids := make([]int64, len(cats))
	names := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
		names[i] = c.Name
		if withCounts {
			names[i] = fmt.Sprintf("%s (%s)", c.Name, t.Catalog().FormatCount(t.Language(), c.ProductCount))
		}
	}
	t.Context().Choices = ids
	t.Say(key, i18n.Params{"list": catalog.NumberedList(names)}, buttons...)
	return nil
}

// handleSelect resolves a numbered choice to a category and moves to next.
func (h *Handler) handleSelect(ctx context.Context, t *bot.Turn, next conversation.State) error {
	text, ok := t.Text()
	if !ok {
		return t.Invalid(ctx)
	}
	choices := t.Context().Choices
	idx, ok := catalog.ParseIndex(text, len(choices))
	if !ok {
		return t.Invalid(ctx)
	}

	cat, err := h.gateway.FindCategory(ctx, t.StoreID(), choices[idx])
	if err != nil {
		return h.errs.Wrap(err, "find category")
	}
	if cat == nil {
		return t.Invalid(ctx)
	}

	t.Context().SelectCategory(cat.ID, cat.Name)
	t.Context().Choices = nil
	return t.Goto(ctx, next)
}

func (h *Handler) handleActions(ctx context.Context, t *bot.Turn) error {
	switch {
	case t.Input.Is("1", ButtonRename):
		return t.Goto(ctx, conversation.StateAwaitingCategoryRename)
	case t.Input.Is("2", ButtonProducts):
		return t.Goto(ctx, conversation.StateSelectProduct)
	case t.Input.Is("3", ButtonDelete):
		return h.deleteCategory(ctx, t)
	default:
		return t.Invalid(ctx)
	}
}

func (h *Handler) deleteCategory(ctx context.Context, t *bot.Turn) error {
	sel := t.Context().Category
	err := h.gateway.DeleteCategory(ctx, t.StoreID(), sel.CategoryID)
	switch {
	case errors.Is(err, domerrors.ErrNotEmpty):
		h.metrics.RecordCatalogWrite("delete_category", "rejected")
		count := 0
		if cat, findErr := h.gateway.FindCategory(ctx, t.StoreID(), sel.CategoryID); findErr == nil && cat != nil {
			count = cat.ProductCount
		}
		return t.Retry(ctx, "manageStore_categoryNotEmpty", i18n.Params{"name": sel.Name, "count": count})
	case domerrors.IsNotFound(err):
		t.Context().ClearFlow()
		t.Say("invalid_input", nil)
		return t.Goto(ctx, conversation.StateManageStore)
	case err != nil:
		h.metrics.RecordCatalogWrite("delete_category", "error")
		return h.errs.Wrap(err, "delete category")
	}

	h.metrics.RecordCatalogWrite("delete_category", "success")
	h.logger.WithModule(ModuleName).WithField("category_id", sel.CategoryID).InfoContext(ctx, "Category deleted")
	t.Say("manageStore_categoryDeleted", i18n.Params{"name": sel.Name})
	t.Context().ClearFlow()
	return t.Goto(ctx, conversation.StateManageStore)
}

func (h *Handler) handleCreate(ctx context.Context, t *bot.Turn) error {
	name, ok := h.validName(t)
	if !ok {
		return t.Invalid(ctx)
	}

	if exists, err := h.nameTaken(ctx, t.StoreID(), name, 0); err != nil {
		return err
	} else if exists {
		return t.Retry(ctx, "manageStore_categoryExists", i18n.Params{"name": name})
	}

	if _, err := h.gateway.CreateCategory(ctx, t.StoreID(), nil, name); err != nil {
		if errors.Is(err, domerrors.ErrDuplicate) {
			return t.Retry(ctx, "manageStore_categoryExists", i18n.Params{"name": name})
		}
		h.metrics.RecordCatalogWrite("create_category", "error")
		return h.errs.Wrap(err, "create category")
	}
	h.metrics.RecordCatalogWrite("create_category", "success")

	t.Say("manageStore_categoryCreated", i18n.Params{"name": name})
	return t.Goto(ctx, conversation.StateManageStore)
}

func (h *Handler) handleRename(ctx context.Context, t *bot.Turn) error {
	name, ok := h.validName(t)
	if !ok {
		return t.Invalid(ctx)
	}
	sel := t.Context().Category

	if exists, err := h.nameTaken(ctx, t.StoreID(), name, sel.CategoryID); err != nil {
		return err
	} else if exists {
		return t.Retry(ctx, "manageStore_categoryExists", i18n.Params{"name": name})
	}

	if err := h.gateway.RenameCategory(ctx, t.StoreID(), sel.CategoryID, name); err != nil {
		if errors.Is(err, domerrors.ErrDuplicate) {
			return t.Retry(ctx, "manageStore_categoryExists", i18n.Params{"name": name})
		}
		h.metrics.RecordCatalogWrite("rename_category", "error")
		return h.errs.Wrap(err, "rename category")
	}
	h.metrics.RecordCatalogWrite("rename_category", "success")

	t.Say("manageStore_categoryRenamed", i18n.Params{"name": name})
	t.Context().ClearFlow()
	return t.Goto(ctx, conversation.StateManageStore)
}

func (h *Handler) validName(t *bot.Turn) (string, bool) {
	text, ok := t.Text()
	if !ok {
		return "", false
	}
	name, err := catalog.ValidateName("category", text, MaxCategoryNameRunes)
	return name, err == nil
}

// nameTaken reports whether another category (not except) already uses name.
func (h *Handler) nameTaken(ctx context.Context, storeID int64, name string, except int64) (bool, error) {
	existing, err := h.gateway.FindCategoryByName(ctx, storeID, name)
	if err != nil {
		return false, h.errs.Wrap(err, "find category by name")
	}
	return existing != nil && existing.ID != except, nil
}
