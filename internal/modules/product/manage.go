package product

import (
	"context"
	"fmt"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	domerrors "github.com/garyellow/storebot/internal/errors"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
)

// ManageModuleName identifies the manage-product handler in logs and metrics.
const ManageModuleName = "product_manage"

// Manage-product button ids.
const (
	ButtonKeep        = "product_keep"
	ButtonEditProduct = "product_edit"
	ButtonAddVariants = "product_add_variants"
	ButtonLeave       = "product_leave"
	ButtonSave        = "update_save"
	ButtonUpdateEdit  = "update_edit"
	ButtonDiscard     = "update_discard"
)

// ManageHandler owns product selection, the stored-product summary and the
// save step of an edit session.
type ManageHandler struct {
	gateway catalog.Gateway
	metrics *metrics.Metrics
	logger  *logger.Logger
	errs    *domerrors.StepWrapper
}

// NewManageHandler creates the manage-product handler.
func NewManageHandler(gateway catalog.Gateway, m *metrics.Metrics, log *logger.Logger) *ManageHandler {
	return &ManageHandler{
		gateway: gateway,
		metrics: m,
		logger:  log,
		errs:    domerrors.NewWrapper(ManageModuleName, "product"),
	}
}

// Name returns the module name
func (h *ManageHandler) Name() string {
	return ManageModuleName
}

// States returns the states owned by this handler.
func (h *ManageHandler) States() []conversation.State {
	return []conversation.State{
		conversation.StateSelectProduct,
		conversation.StateProductSummary,
		conversation.StateAwaitingUpdate,
	}
}

// Enter renders the prompt of the current state.
func (h *ManageHandler) Enter(ctx context.Context, t *bot.Turn) error {
	switch t.State() {
	case conversation.StateSelectProduct:
		return h.promptProducts(ctx, t)
	case conversation.StateProductSummary:
		if err := sendSummary(ctx, h.gateway, t); err != nil {
			return h.errs.Wrap(err, "render summary")
		}
		if d := t.Draft(); len(d.Colors) == 0 {
			t.Say("product_missing_variants", i18n.Params{"name": d.Name},
				t.Button(ButtonAddVariants, "btn_add_variants"),
				t.Button(ButtonLeave, "btn_leave"),
			)
			return nil
		}
		t.Say("product_keep_or_edit", nil,
			t.Button(ButtonKeep, "btn_keep"),
			t.Button(ButtonEditProduct, "btn_edit"),
		)
		return nil
	case conversation.StateAwaitingUpdate:
		if err := sendSummary(ctx, h.gateway, t); err != nil {
			return h.errs.Wrap(err, "render summary")
		}
		t.Say("product_update_confirm", nil,
			t.Button(ButtonSave, "btn_save"),
			t.Button(ButtonUpdateEdit, "btn_edit"),
			t.Button(ButtonDiscard, "btn_discard"),
		)
		return nil
	default:
		return fmt.Errorf("product manage: unexpected state %s", t.State())
	}
}

// promptProducts numbers the products of the selected category (the whole
// store without one). An empty list returns to the store menu.
func (h *ManageHandler) promptProducts(ctx context.Context, t *bot.Turn) error {
	var categoryID int64
	if sel := t.Context().Category; sel != nil {
		categoryID = sel.CategoryID
	}

	products, err := h.gateway.ListProducts(ctx, t.StoreID(), categoryID)
	if err != nil {
		return h.errs.Wrap(err, "list products")
	}
	if len(products) == 0 {
		t.Context().ClearFlow()
		t.Say("product_none", nil)
		return t.Goto(ctx, conversation.StateManageStore)
	}

	ids := make([]int64, len(products))
	names := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
		names[i] = fmt.Sprintf("%s (%s)", p.Name, t.Catalog().FormatAmount(t.Language(), p.Price))
	}
	t.Context().Choices = ids
	t.Say("product_select", i18n.Params{"list": catalog.NumberedList(names)})
	return nil
}

// Handle processes input for the current state.
func (h *ManageHandler) Handle(ctx context.Context, t *bot.Turn) error {
	switch t.State() {
	case conversation.StateSelectProduct:
		return h.handleSelect(ctx, t)
	case conversation.StateProductSummary:
		return h.handleSummary(ctx, t)
	case conversation.StateAwaitingUpdate:
		return h.handleUpdate(ctx, t)
	default:
		return fmt.Errorf("product manage: unexpected state %s", t.State())
	}
}

func (h *ManageHandler) handleSelect(ctx context.Context, t *bot.Turn) error {
	text, ok := t.Text()
	if !ok {
		return t.Invalid(ctx)
	}
	choices := t.Context().Choices
	idx, ok := catalog.ParseIndex(text, len(choices))
	if !ok {
		return t.Invalid(ctx)
	}

	p, err := h.gateway.FindProduct(ctx, t.StoreID(), choices[idx])
	if err != nil {
		return h.errs.Wrap(err, "find product")
	}
	if p == nil {
		return t.Invalid(ctx)
	}

	t.Context().StartDraft(catalog.DraftFromProduct(p))
	t.Context().Choices = nil
	return t.Goto(ctx, conversation.StateProductSummary)
}

func (h *ManageHandler) handleSummary(ctx context.Context, t *bot.Turn) error {
	d := t.Draft()
	if len(d.Colors) == 0 {
		switch {
		case t.Input.Is("1", ButtonAddVariants):
			d.Editing = true
			return t.Goto(ctx, conversation.StateAwaitingColors)
		case t.Input.Is("2", ButtonLeave):
			t.Context().ClearFlow()
			return t.Goto(ctx, conversation.StateMainMenu)
		default:
			return t.Invalid(ctx)
		}
	}

	switch {
	case t.Input.Is("1", ButtonKeep):
		t.Context().ClearFlow()
		return t.Goto(ctx, conversation.StateMainMenu)
	case t.Input.Is("2", ButtonEditProduct):
		return t.Goto(ctx, conversation.StateAwaitingFix)
	default:
		return t.Invalid(ctx)
	}
}

func (h *ManageHandler) handleUpdate(ctx context.Context, t *bot.Turn) error {
	switch {
	case t.Input.Is("1", ButtonSave):
		return h.save(ctx, t)
	case t.Input.Is("2", ButtonUpdateEdit):
		return t.Goto(ctx, conversation.StateAwaitingFix)
	case t.Input.Is("3", ButtonDiscard):
		t.Context().ClearFlow()
		t.Say("changes_discarded", nil)
		return t.Goto(ctx, conversation.StateMainMenu)
	default:
		return t.Invalid(ctx)
	}
}

// save writes the edited product and replaces all of its variants.
func (h *ManageHandler) save(ctx context.Context, t *bot.Turn) error {
	d := t.Draft()
	if err := h.gateway.UpdateProduct(ctx, productFromDraft(t.StoreID(), d)); err != nil {
		h.metrics.RecordCatalogWrite("update_product", "error")
		return h.errs.Wrap(err, "update product")
	}
	h.metrics.RecordCatalogWrite("update_product", "success")
	h.logger.WithModule(ManageModuleName).WithField("product_id", d.ProductID).InfoContext(ctx, "Product updated")

	t.Say("product_updated", i18n.Params{"name": d.Name})
	t.Context().ClearFlow()
	return t.Goto(ctx, conversation.StateMainMenu)
}
