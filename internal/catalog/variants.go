package catalog

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/garyellow/storebot/internal/conversation"
)

// GenerateVariants builds one variant per colour × size pair, colours outer.
// SKU is base-COLOR-SIZE with the colour upper-cased; missing stock entries default to 0.
func GenerateVariants(baseSKU string, colors, sizes []string, stock map[string][]int, price float64) []Variant {
	variants := make([]Variant, 0, len(colors)*len(sizes))
	for _, color := range colors {
		counts := stock[color]
		for i, size := range sizes {
			n := 0
			if i < len(counts) {
				n = counts[i]
			}
			variants = append(variants, Variant{
				SKU:   fmt.Sprintf("%s-%s-%s", baseSKU, skuPart(strings.ToUpper(color)), skuPart(size)),
				Price: price,
				Stock: n,
				Options: []Option{
					{Name: OptionColor, Value: color},
					{Name: OptionSize, Value: size},
				},
			})
		}
	}
	return variants
}

func skuPart(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// VariantsFromDraft generates the variants of a finished draft.
func VariantsFromDraft(d *conversation.Draft) []Variant {
	return GenerateVariants(d.BaseSKU, d.Colors, d.Sizes, d.Stock, d.FinalPrice)
}

// DraftFromProduct rebuilds an edit draft from a stored product. Colours and
// sizes keep their first-seen order across variants.
func DraftFromProduct(p *Product) *conversation.Draft {
	d := &conversation.Draft{
		Origin:      conversation.OriginExisting,
		ProductID:   p.ID,
		BaseSKU:     p.BaseSKU,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		FinalPrice:  p.Price,
		Images:      append([]string(nil), p.Images...),
	}

	sizeIndex := make(map[string]int)
	colorSeen := make(map[string]bool)
	for _, v := range p.Variants {
		color, size := v.Option(OptionColor), v.Option(OptionSize)
		if !colorSeen[color] {
			colorSeen[color] = true
			d.Colors = append(d.Colors, color)
		}
		if _, ok := sizeIndex[size]; !ok {
			sizeIndex[size] = len(d.Sizes)
			d.Sizes = append(d.Sizes, size)
		}
	}

	if len(d.Colors) > 0 {
		d.Stock = make(map[string][]int, len(d.Colors))
		for _, color := range d.Colors {
			d.Stock[color] = make([]int, len(d.Sizes))
		}
		for _, v := range p.Variants {
			d.Stock[v.Option(OptionColor)][sizeIndex[v.Option(OptionSize)]] = v.Stock
		}
	}
	return d
}

// BaseSKU derives a product SKU prefix from its name plus a unique suffix.
// Non-Latin names fall back to "ITEM".
func BaseSKU(name, suffix string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToUpper(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
		if b.Len() >= 12 {
			break
		}
	}
	prefix := strings.Trim(b.String(), "-")
	if prefix == "" {
		prefix = "ITEM"
	}
	return prefix + "-" + strings.ToUpper(suffix)
}

// EditChoiceState maps a fix-menu choice ("1".."6") to its edit sub-state.
func EditChoiceState(choice string) (conversation.State, bool) {
	switch strings.TrimSpace(choice) {
	case "1", "fix_name":
		return conversation.StateEditName, true
	case "2", "fix_price":
		return conversation.StateEditPrice, true
	case "3", "fix_description":
		return conversation.StateEditDescription, true
	case "4", "fix_colors":
		return conversation.StateEditColors, true
	case "5", "fix_stock":
		return conversation.StateEditStock, true
	case "6", "fix_images":
		return conversation.StateEditImages, true
	default:
		return "", false
	}
}

// NumberedList renders "1. a\n2. b".
func NumberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, item)
	}
	return b.String()
}
