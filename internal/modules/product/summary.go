// Package product implements the add-product wizard, the fix menu shared by
// new and existing products, and the manage-product states.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/conversation"
	"github.com/garyellow/storebot/internal/i18n"
)

// Field limits in runes.
const (
	MaxNameRunes        = 100
	MaxDescriptionRunes = 1000
	MaxCategoryRunes    = 60
)

// sendSummary queues the product summary of the turn's draft.
func sendSummary(ctx context.Context, gw catalog.Gateway, t *bot.Turn) error {
	d := t.Draft()

	categoryName := "-"
	if d.CategoryID > 0 {
		cat, err := gw.FindCategory(ctx, t.StoreID(), d.CategoryID)
		if err != nil {
			return fmt.Errorf("summary category: %w", err)
		}
		if cat != nil {
			categoryName = cat.Name
		}
	}

	description := d.Description
	if description == "" {
		description = "-"
	}

	t.Say("product_summary", i18n.Params{
		"name":        d.Name,
		"category":    categoryName,
		"price":       t.Catalog().FormatAmount(t.Language(), d.FinalPrice),
		"description": description,
		"stock":       stockLines(t, d),
		"images":      len(d.Images),
	})
	return nil
}

// stockLines renders "Red: S=1, M=2" per colour, or the simple/no-variant wording.
func stockLines(t *bot.Turn, d *conversation.Draft) string {
	switch {
	case d.IsSimple():
		return t.T("summary_simple_stock", i18n.Params{"count": d.TotalStock()})
	case len(d.Colors) == 0 || len(d.Sizes) == 0:
		return t.T("summary_no_variants", nil)
	}

	lines := make([]string, 0, len(d.Colors))
	for _, color := range d.Colors {
		counts := d.Stock[color]
		parts := make([]string, len(d.Sizes))
		for i, size := range d.Sizes {
			n := 0
			if i < len(counts) {
				n = counts[i]
			}
			parts[i] = fmt.Sprintf("%s=%d", size, n)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", color, strings.Join(parts, ", ")))
	}
	return strings.Join(lines, "\n")
}

// retryStock answers a stock parse failure with the message matching its kind.
func retryStock(ctx context.Context, t *bot.Turn, err error) error {
	var se *catalog.StockError
	if !errors.As(err, &se) {
		return t.Invalid(ctx)
	}
	switch se.Kind {
	case catalog.StockWrongCount:
		return t.Retry(ctx, "stock_wrong_count", i18n.Params{"expected": se.Expected, "got": se.Got})
	case catalog.StockNotNumber:
		return t.Retry(ctx, "stock_not_number", i18n.Params{"token": se.Token})
	default:
		return t.Retry(ctx, "stock_negative", i18n.Params{"token": se.Token})
	}
}

// rejoin ends a fix-menu edit at the confirmation step matching the draft origin.
func rejoin(ctx context.Context, t *bot.Turn) error {
	d := t.Draft()
	d.Editing = false
	d.ColorIndex = 0
	if d.Origin == conversation.OriginExisting {
		return t.Goto(ctx, conversation.StateAwaitingUpdate)
	}
	return t.Goto(ctx, conversation.StateAwaitingConfirmation)
}

// productFromDraft builds the catalog product a finished draft describes.
func productFromDraft(storeID int64, d *conversation.Draft) *catalog.Product {
	return &catalog.Product{
		ID:          d.ProductID,
		StoreID:     storeID,
		CategoryID:  d.CategoryID,
		Name:        d.Name,
		Description: d.Description,
		BaseSKU:     d.BaseSKU,
		Price:       d.FinalPrice,
		Images:      d.Images,
		Variants:    catalog.VariantsFromDraft(d),
	}
}
