package product

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	domerrors "github.com/garyellow/storebot/internal/errors"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/google/uuid"
)

// WizardModuleName identifies the add-product wizard in logs and metrics.
const WizardModuleName = "product_wizard"

// Wizard button ids.
const (
	ButtonNewCategory = "category_new"
	ButtonVATIncluded = "price_includes_vat_yes"
	ButtonVATExcluded = "price_includes_vat_no"
	ButtonVariantsYes = "has_variations_yes"
	ButtonVariantsNo  = "has_variations_no"
	ButtonImagesDone  = "images_done"
	ButtonPublish     = "confirm_publish"
	ButtonEdit        = "confirm_edit"
	ButtonCancel      = "confirm_cancel"
	ButtonFixName     = "fix_name"
	ButtonFixPrice    = "fix_price"
	ButtonFixDesc     = "fix_description"
	ButtonFixColors   = "fix_colors"
	ButtonFixStock    = "fix_stock"
	ButtonFixImages   = "fix_images"
)

const skuSuffixLength = 6

// WizardHandler owns the add-product wizard and the fix-menu edit states
// shared by new and existing products.
type WizardHandler struct {
	gateway    catalog.Gateway
	vatPercent float64
	newSuffix  func() string
	metrics    *metrics.Metrics
	logger     *logger.Logger
	errs       *domerrors.StepWrapper
}

// NewWizardHandler creates the add-product wizard. A zero vatPercent means
// prices are never raised; a negative one uses catalog.DefaultVATPercent.
func NewWizardHandler(gateway catalog.Gateway, vatPercent float64, m *metrics.Metrics, log *logger.Logger) *WizardHandler {
	if vatPercent < 0 {
		vatPercent = catalog.DefaultVATPercent
	}
	return &WizardHandler{
		gateway:    gateway,
		vatPercent: vatPercent,
		newSuffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:skuSuffixLength]
		},
		metrics: m,
		logger:  log,
		errs:    domerrors.NewWrapper(WizardModuleName, "product"),
	}
}

// Name returns the module name
func (h *WizardHandler) Name() string {
	return WizardModuleName
}

// States returns the states owned by this handler.
func (h *WizardHandler) States() []conversation.State {
	return []conversation.State{
		conversation.StateAwaitingName,
		conversation.StateAwaitingCategory,
		conversation.StateAwaitingNewCategoryName,
		conversation.StateAwaitingPrice,
		conversation.StateAskVatInclusion,
		conversation.StateAwaitingDescription,
		conversation.StateAskVariations,
		conversation.StateAwaitingSimpleStock,
		conversation.StateAwaitingColors,
		conversation.StateAwaitingSizes,
		conversation.StateAwaitingSizeStep,
		conversation.StateAwaitingStock,
		conversation.StateAwaitingImages,
		conversation.StateAwaitingConfirmation,
		conversation.StateAwaitingFix,
		conversation.StateEditName,
		conversation.StateEditPrice,
		conversation.StateEditDescription,
		conversation.StateEditColors,
		conversation.StateEditStock,
		conversation.StateEditImages,
	}
}

// Enter renders the prompt of the current state.
func (h *WizardHandler) Enter(ctx context.Context, t *bot.Turn) error {
	switch t.State() {
	case conversation.StateAwaitingName:
		t.Say("product_ask_name", nil)
	case conversation.StateEditName:
		t.Say("edit_ask_name", nil)
	case conversation.StateAwaitingCategory:
		return h.promptCategory(ctx, t)
	case conversation.StateAwaitingNewCategoryName:
		t.Say("product_ask_new_category", nil)
	case conversation.StateAwaitingPrice, conversation.StateEditPrice:
		t.Say("product_ask_price", nil)
	case conversation.StateAskVatInclusion:
		t.Say("product_ask_vat", i18n.Params{
			"price": catalog.FormatPrice(t.Draft().Price),
			"vat":   strconv.FormatFloat(h.vatPercent, 'f', -1, 64),
		},
			t.Button(ButtonVATIncluded, "btn_vat_included"),
			t.Button(ButtonVATExcluded, "btn_vat_excluded"),
		)
	case conversation.StateAwaitingDescription, conversation.StateEditDescription:
		t.Say("product_ask_description", nil)
	case conversation.StateAskVariations:
		t.Say("product_ask_variations", nil,
			t.Button(ButtonVariantsYes, "btn_yes"),
			t.Button(ButtonVariantsNo, "btn_no"),
		)
	case conversation.StateAwaitingSimpleStock:
		t.Say("product_ask_simple_stock", nil)
	case conversation.StateAwaitingColors, conversation.StateEditColors:
		t.Say("product_ask_colors", nil)
	case conversation.StateAwaitingSizes:
		t.Say("product_ask_sizes", nil)
	case conversation.StateAwaitingSizeStep:
		d := t.Draft()
		t.Say("product_ask_size_step", i18n.Params{"start": d.RangeStart, "end": d.RangeEnd})
	case conversation.StateAwaitingStock:
		promptStock(t)
	case conversation.StateEditStock:
		if t.Draft().IsSimple() {
			t.Say("product_ask_simple_stock", nil)
		} else {
			promptStock(t)
		}
	case conversation.StateAwaitingImages:
		t.Say("product_ask_images", nil, t.Button(ButtonImagesDone, "btn_done"))
	case conversation.StateEditImages:
		t.Say("edit_ask_images", nil, t.Button(ButtonImagesDone, "btn_done"))
	case conversation.StateAwaitingConfirmation:
		if err := sendSummary(ctx, h.gateway, t); err != nil {
			return h.errs.Wrap(err, "render summary")
		}
		t.Say("product_confirm", nil,
			t.Button(ButtonPublish, "btn_publish"),
			t.Button(ButtonEdit, "btn_edit"),
			t.Button(ButtonCancel, "btn_cancel"),
		)
	case conversation.StateAwaitingFix:
		t.Say("fix_menu", nil,
			t.Button(ButtonFixName, "btn_fix_name"),
			t.Button(ButtonFixPrice, "btn_fix_price"),
			t.Button(ButtonFixDesc, "btn_fix_description"),
			t.Button(ButtonFixColors, "btn_fix_colors"),
			t.Button(ButtonFixStock, "btn_fix_stock"),
			t.Button(ButtonFixImages, "btn_fix_images"),
		)
	default:
		return fmt.Errorf("product wizard: unexpected state %s", t.State())
	}
	return nil
}

// promptStock asks for the stock of the current colour across all sizes.
func promptStock(t *bot.Turn) {
	d := t.Draft()
	t.Say("product_ask_stock", i18n.Params{
		"color": d.CurrentColor(),
		"count": len(d.Sizes),
		"sizes": strings.Join(d.Sizes, ", "),
	})
}

func (h *WizardHandler) promptCategory(ctx context.Context, t *bot.Turn) error {
	cats, err := h.gateway.ListCategories(ctx, t.StoreID(), nil)
	if err != nil {
		return h.errs.Wrap(err, "list categories")
	}
	newButton := t.Button(ButtonNewCategory, "btn_new_category")
	if len(cats) == 0 {
		t.Context().Choices = nil
		t.Say("product_ask_category_empty", nil, newButton)
		return nil
	}

	ids := make([]int64, len(cats))
	names := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
		names[i] = c.Name
	}
	t.Context().Choices = ids
	t.Say("product_ask_category", i18n.Params{"list": catalog.NumberedList(names)}, newButton)
	return nil
}

// Handle processes input for the current state.
func (h *WizardHandler) Handle(ctx context.Context, t *bot.Turn) error {
	state := t.State()

	// Only the image steps accept media.
	text, isText := t.Text()
	if !isText && state != conversation.StateAwaitingImages && state != conversation.StateEditImages {
		return t.Invalid(ctx)
	}

	switch state {
	case conversation.StateAwaitingName:
		name, err := catalog.ValidateName("name", text, MaxNameRunes)
		if err != nil {
			return t.Invalid(ctx)
		}
		t.Context().StartDraft(&conversation.Draft{Origin: conversation.OriginNew, Name: name})
		return t.Goto(ctx, conversation.StateAwaitingCategory)

	case conversation.StateEditName:
		name, err := catalog.ValidateName("name", text, MaxNameRunes)
		if err != nil {
			return t.Invalid(ctx)
		}
		t.Draft().Name = name
		return rejoin(ctx, t)

	case conversation.StateAwaitingCategory:
		return h.handleCategory(ctx, t, text)
	case conversation.StateAwaitingNewCategoryName:
		return h.handleNewCategory(ctx, t, text)

	case conversation.StateAwaitingPrice, conversation.StateEditPrice:
		price, err := catalog.ParsePrice(text)
		if err != nil {
			return t.Invalid(ctx)
		}
		t.Draft().Price = price
		return t.Goto(ctx, conversation.StateAskVatInclusion)

	case conversation.StateAskVatInclusion:
		return h.handleVAT(ctx, t)

	case conversation.StateAwaitingDescription, conversation.StateEditDescription:
		desc, err := catalog.ValidateName("description", text, MaxDescriptionRunes)
		if err != nil {
			return t.Invalid(ctx)
		}
		t.Draft().Description = desc
		if state == conversation.StateEditDescription {
			return rejoin(ctx, t)
		}
		return t.Goto(ctx, conversation.StateAskVariations)

	case conversation.StateAskVariations:
		switch {
		case t.Input.Is("1", ButtonVariantsYes, "yes"):
			return t.Goto(ctx, conversation.StateAwaitingColors)
		case t.Input.Is("2", ButtonVariantsNo, "no"):
			return t.Goto(ctx, conversation.StateAwaitingSimpleStock)
		default:
			return t.Invalid(ctx)
		}

	case conversation.StateAwaitingSimpleStock:
		n, err := catalog.ParseSingleStock(text)
		if err != nil {
			return retryStock(ctx, t, err)
		}
		t.Draft().SetSimpleStock(n)
		return h.afterVariants(ctx, t)

	case conversation.StateAwaitingColors, conversation.StateEditColors:
		return h.handleColors(ctx, t, text)
	case conversation.StateAwaitingSizes:
		return h.handleSizes(ctx, t, text)
	case conversation.StateAwaitingSizeStep:
		return h.handleSizeStep(ctx, t, text)

	case conversation.StateAwaitingStock:
		return h.handleStockWalk(ctx, t, text)
	case conversation.StateEditStock:
		if t.Draft().IsSimple() {
			n, err := catalog.ParseSingleStock(text)
			if err != nil {
				return retryStock(ctx, t, err)
			}
			t.Draft().SetSimpleStock(n)
			return rejoin(ctx, t)
		}
		return h.handleStockWalk(ctx, t, text)

	case conversation.StateAwaitingImages, conversation.StateEditImages:
		return h.handleImages(ctx, t)
	case conversation.StateAwaitingConfirmation:
		return h.handleConfirmation(ctx, t)
	case conversation.StateAwaitingFix:
		return h.handleFix(ctx, t, text)
	default:
		return fmt.Errorf("product wizard: unexpected state %s", state)
	}
}

func (h *WizardHandler) handleCategory(ctx context.Context, t *bot.Turn, text string) error {
	if t.Input.Is("new", ButtonNewCategory) {
		return t.Goto(ctx, conversation.StateAwaitingNewCategoryName)
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

	t.Draft().CategoryID = cat.ID
	t.Context().Choices = nil
	return t.Goto(ctx, conversation.StateAwaitingPrice)
}

func (h *WizardHandler) handleNewCategory(ctx context.Context, t *bot.Turn, text string) error {
	name, err := catalog.ValidateName("category", text, MaxCategoryRunes)
	if err != nil {
		return t.Invalid(ctx)
	}

	existing, err := h.gateway.FindCategoryByName(ctx, t.StoreID(), name)
	if err != nil {
		return h.errs.Wrap(err, "find category by name")
	}
	if existing != nil {
		return t.Retry(ctx, "manageStore_categoryExists", i18n.Params{"name": name})
	}

	cat, err := h.gateway.CreateCategory(ctx, t.StoreID(), nil, name)
	if err != nil {
		if domerrors.IsDuplicate(err) {
			return t.Retry(ctx, "manageStore_categoryExists", i18n.Params{"name": name})
		}
		h.metrics.RecordCatalogWrite("create_category", "error")
		return h.errs.Wrap(err, "create category")
	}
	h.metrics.RecordCatalogWrite("create_category", "success")

	t.Draft().CategoryID = cat.ID
	t.Context().Choices = nil
	t.Say("manageStore_categoryCreated", i18n.Params{"name": name})
	return t.Goto(ctx, conversation.StateAwaitingPrice)
}

func (h *WizardHandler) handleVAT(ctx context.Context, t *bot.Turn) error {
	d := t.Draft()
	switch {
	case t.Input.Is("1", ButtonVATIncluded, "yes"):
		d.FinalPrice = d.Price
	case t.Input.Is("2", ButtonVATExcluded, "no"):
		d.FinalPrice = catalog.ComputeFinalPrice(d.Price, h.vatPercent)
	default:
		return t.Invalid(ctx)
	}

	if d.Editing {
		return rejoin(ctx, t)
	}
	return t.Goto(ctx, conversation.StateAwaitingDescription)
}

func (h *WizardHandler) handleColors(ctx context.Context, t *bot.Turn, text string) error {
	colors := catalog.ParseList(text)
	if len(colors) == 0 {
		return t.Invalid(ctx)
	}

	d := t.Draft()
	keepSizes := t.State() == conversation.StateEditColors && !d.IsSimple() && len(d.Sizes) > 0

	d.Colors = colors
	d.ColorIndex = 0
	if keepSizes {
		// New colour set over the existing sizes: walk the stock again.
		stock := make(map[string][]int, len(colors))
		for _, c := range colors {
			if counts, ok := d.Stock[c]; ok {
				stock[c] = counts
			}
		}
		d.Stock = stock
		return t.Goto(ctx, conversation.StateAwaitingStock)
	}

	d.Sizes = nil
	d.Stock = make(map[string][]int, len(colors))
	return t.Goto(ctx, conversation.StateAwaitingSizes)
}

func (h *WizardHandler) handleSizes(ctx context.Context, t *bot.Turn, text string) error {
	input, err := catalog.ParseSizes(text)
	if err != nil {
		return t.Retry(ctx, "product_sizes_invalid", i18n.Params{"max": catalog.MaxSizes})
	}

	d := t.Draft()
	if input.Range != nil {
		d.RangeStart, d.RangeEnd = input.Range.Start, input.Range.End
		return t.Goto(ctx, conversation.StateAwaitingSizeStep)
	}

	d.Sizes = input.List
	d.ColorIndex = 0
	return t.Goto(ctx, conversation.StateAwaitingStock)
}

func (h *WizardHandler) handleSizeStep(ctx context.Context, t *bot.Turn, text string) error {
	step, err := catalog.ParseStep(text)
	if err != nil {
		return t.Invalid(ctx)
	}

	d := t.Draft()
	sizes, err := catalog.ExpandRange(catalog.SizeRange{Start: d.RangeStart, End: d.RangeEnd}, step)
	d.RangeStart, d.RangeEnd = 0, 0
	if err != nil {
		t.Say("product_sizes_invalid", i18n.Params{"max": catalog.MaxSizes})
		return t.Goto(ctx, conversation.StateAwaitingSizes)
	}

	d.Sizes = sizes
	d.ColorIndex = 0
	return t.Goto(ctx, conversation.StateAwaitingStock)
}

// handleStockWalk records the counts of the current colour and asks for the
// next one, finishing once every colour has stock.
func (h *WizardHandler) handleStockWalk(ctx context.Context, t *bot.Turn, text string) error {
	d := t.Draft()
	counts, err := catalog.ParseStock(text, len(d.Sizes))
	if err != nil {
		return retryStock(ctx, t, err)
	}

	if d.Stock == nil {
		d.Stock = make(map[string][]int, len(d.Colors))
	}
	d.Stock[d.CurrentColor()] = counts
	d.ColorIndex++
	if d.ColorIndex < len(d.Colors) {
		return t.Goto(ctx, t.State())
	}

	d.ColorIndex = 0
	return h.afterVariants(ctx, t)
}

// afterVariants continues once stock is complete: images for a new draft,
// the confirmation step while editing.
func (h *WizardHandler) afterVariants(ctx context.Context, t *bot.Turn) error {
	if t.Draft().Editing {
		return rejoin(ctx, t)
	}
	return t.Goto(ctx, conversation.StateAwaitingImages)
}

func (h *WizardHandler) handleImages(ctx context.Context, t *bot.Turn) error {
	d := t.Draft()
	if t.Input.Kind == conversation.InputImage {
		d.Images = append(d.Images, t.Input.Image)
		t.Say("image_received", i18n.Params{"count": len(d.Images)}, t.Button(ButtonImagesDone, "btn_done"))
		return nil
	}

	if !t.Input.Is("done", ButtonImagesDone) {
		return t.Invalid(ctx)
	}
	if t.State() == conversation.StateEditImages {
		return rejoin(ctx, t)
	}
	return t.Goto(ctx, conversation.StateAwaitingConfirmation)
}

func (h *WizardHandler) handleConfirmation(ctx context.Context, t *bot.Turn) error {
	switch {
	case t.Input.Is("1", "publish", ButtonPublish):
		return h.publish(ctx, t)
	case t.Input.Is("2", "edit", ButtonEdit):
		return t.Goto(ctx, conversation.StateAwaitingFix)
	case t.Input.Is("3", "cancel", ButtonCancel):
		t.Context().ClearFlow()
		t.Say("product_discarded", nil)
		return t.Goto(ctx, conversation.StateMainMenu)
	default:
		return t.Invalid(ctx)
	}
}

// publish creates the product with one variant per colour and size.
func (h *WizardHandler) publish(ctx context.Context, t *bot.Turn) error {
	d := t.Draft()
	if d.BaseSKU == "" {
		d.BaseSKU = catalog.BaseSKU(d.Name, h.newSuffix())
	}

	created, err := h.gateway.CreateProduct(ctx, productFromDraft(t.StoreID(), d))
	if err != nil {
		h.metrics.RecordCatalogWrite("create_product", "error")
		return h.errs.Wrap(err, "create product")
	}
	h.metrics.RecordCatalogWrite("create_product", "success")
	h.logger.WithModule(WizardModuleName).
		WithField("product_id", created.ID).
		WithField("variants", len(created.Variants)).
		InfoContext(ctx, "Product published")

	t.Say("product_published", i18n.Params{"name": created.Name, "count": len(created.Variants)})
	t.Context().ClearFlow()
	return t.Goto(ctx, conversation.StateMainMenu)
}

func (h *WizardHandler) handleFix(ctx context.Context, t *bot.Turn, text string) error {
	next, ok := catalog.EditChoiceState(text)
	if !ok {
		return t.Invalid(ctx)
	}

	d := t.Draft()
	d.Editing = true
	switch next {
	case conversation.StateEditStock:
		if len(d.Colors) == 0 || len(d.Sizes) == 0 {
			// No variants yet: a single stock number makes it a simple product.
			d.SetSimpleStock(0)
		}
		d.ColorIndex = 0
	case conversation.StateEditImages:
		d.Images = nil
	}
	return t.Goto(ctx, next)
}
