package catalog

import (
	"errors"
	"testing"

	"github.com/garyellow/storebot/internal/conversation"
	apperrors "github.com/garyellow/storebot/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFinalPrice(t *testing.T) {
	tests := []struct {
		price, vat, want float64
	}{
		{50, 18, 59.00},
		{100, 18, 118.00},
		{9.99, 18, 11.79},
		{10, 0, 10},
		{33.33, 17, 39.00},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ComputeFinalPrice(tt.price, tt.vat), 0.0001, "price %v vat %v", tt.price, tt.vat)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "50", want: 50},
		{input: " 49.90 ", want: 49.9},
		{input: "1,200 ₪", want: 1200},
		{input: "$15", want: 15},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.True(t, apperrors.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		want     []int
		kind     StockErrorKind
	}{
		{name: "comma separated", input: "5,3,0", expected: 3, want: []int{5, 3, 0}},
		{name: "spaces and commas", input: " 5, 3  0 ", expected: 3, want: []int{5, 3, 0}},
		{name: "too few", input: "5,3", expected: 3, kind: StockWrongCount},
		{name: "too many", input: "1 2 3 4", expected: 3, kind: StockWrongCount},
		{name: "not a number", input: "5,x,1", expected: 3, kind: StockNotNumber},
		{name: "decimal", input: "1.5", expected: 1, kind: StockNotNumber},
		{name: "negative", input: "-1", expected: 1, kind: StockNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStock(tt.input, tt.expected)
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var stockErr *StockError
			require.True(t, errors.As(err, &stockErr), "got %v", err)
			assert.Equal(t, tt.kind, stockErr.Kind)
			assert.True(t, apperrors.IsInvalidInput(err))
		})
	}
}

func TestParseStock_WrongCountCarriesCounts(t *testing.T) {
	_, err := ParseStock("1 2", 4)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Expected)
	assert.Equal(t, 2, stockErr.Got)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"Red", "blue"}, ParseList("Red, blue ,, RED\nBlue"))
	assert.Equal(t, []string{"Red", "Green", "black"}, ParseList(" Red ,Green\nblack; red"))
	assert.Empty(t, ParseList(" , ,"))
}

func TestParseSizes(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		in, err := ParseSizes("S, M, L")
		require.NoError(t, err)
		assert.Equal(t, []string{"S", "M", "L"}, in.List)
		assert.Nil(t, in.Range)
	})

	t.Run("range", func(t *testing.T) {
		in, err := ParseSizes(" 36 - 42 ")
		require.NoError(t, err)
		require.NotNil(t, in.Range)
		assert.Equal(t, SizeRange{Start: 36, End: 42}, *in.Range)
	})

	t.Run("reversed range", func(t *testing.T) {
		_, err := ParseSizes("42-36")
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseSizes(" , ")
		assert.Error(t, err)
	})
}

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name    string
		r       SizeRange
		step    int
		want    []string
		wantErr bool
	}{
		{name: "step 2 reaches end", r: SizeRange{20, 24}, step: 2, want: []string{"20", "22", "24"}},
		{name: "end not reachable", r: SizeRange{20, 25}, step: 2, want: []string{"20", "22", "24"}},
		{name: "single value", r: SizeRange{38, 38}, step: 1, want: []string{"38"}},
		{name: "step larger than span", r: SizeRange{1, 3}, step: 10, want: []string{"1"}},
		{name: "zero step", r: SizeRange{1, 3}, step: 0, wantErr: true},
		{name: "too many", r: SizeRange{0, 1000}, step: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.r, tt.step)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateVariants(t *testing.T) {
	colors := []string{"red", "Navy Blue"}
	sizes := []string{"S", "M"}
	stock := map[string][]int{"red": {4, 5}}

	variants := GenerateVariants("MUG-AB12", colors, sizes, stock, 59)

	require.Len(t, variants, len(colors)*len(sizes))
	want := []struct {
		sku   string
		color string
		size  string
		stock int
	}{
		{"MUG-AB12-RED-S", "red", "S", 4},
		{"MUG-AB12-RED-M", "red", "M", 5},
		{"MUG-AB12-NAVY_BLUE-S", "Navy Blue", "S", 0},
		{"MUG-AB12-NAVY_BLUE-M", "Navy Blue", "M", 0},
	}
	for i, w := range want {
		v := variants[i]
		assert.Equal(t, w.sku, v.SKU)
		assert.Equal(t, w.color, v.Option(OptionColor))
		assert.Equal(t, w.size, v.Option(OptionSize))
		assert.Equal(t, w.stock, v.Stock)
		assert.InDelta(t, 59.0, v.Price, 0.0001)
		assert.Len(t, v.Options, 2)
	}
}

func TestGenerateVariants_SimpleProduct(t *testing.T) {
	d := &conversation.Draft{BaseSKU: "MUG-1", FinalPrice: 59}
	d.SetSimpleStock(5)

	variants := VariantsFromDraft(d)

	require.Len(t, variants, 1)
	assert.Equal(t, 5, variants[0].Stock)
	assert.InDelta(t, 59.0, variants[0].Price, 0.0001)
	assert.Equal(t, conversation.SimpleColor, variants[0].Option(OptionColor))
	assert.Equal(t, conversation.SimpleSize, variants[0].Option(OptionSize))
}

func TestDraftFromProduct(t *testing.T) {
	p := &Product{
		ID:       9,
		Name:     "Sneaker",
		BaseSKU:  "SNEAKER-X",
		Price:    120,
		Images:   []string{"a.jpg"},
		Variants: GenerateVariants("SNEAKER-X", []string{"Black", "White"}, []string{"40", "41"}, map[string][]int{"Black": {1, 2}, "White": {3, 4}}, 120),
	}

	d := DraftFromProduct(p)

	assert.Equal(t, conversation.OriginExisting, d.Origin)
	assert.Equal(t, int64(9), d.ProductID)
	assert.Equal(t, []string{"Black", "White"}, d.Colors)
	assert.Equal(t, []string{"40", "41"}, d.Sizes)
	assert.Equal(t, map[string][]int{"Black": {1, 2}, "White": {3, 4}}, d.Stock)
	assert.Equal(t, p.Variants, VariantsFromDraft(d), "regenerating yields the same variant set")

	empty := DraftFromProduct(&Product{ID: 2, Name: "Bare"})
	assert.Empty(t, empty.Colors)
	assert.Nil(t, empty.Stock)
}

func TestBaseSKU(t *testing.T) {
	assert.Equal(t, "BLUE-MUG-A1B2", BaseSKU("Blue mug!", "a1b2"))
	assert.Equal(t, "ITEM-A1B2", BaseSKU("ספל כחול", "a1b2"))
	assert.Equal(t, "VERY-LONG-NA-X", BaseSKU("very long name indeed", "x"))
}

func TestEditChoiceState(t *testing.T) {
	want := map[string]conversation.State{
		"1": conversation.StateEditName,
		"2": conversation.StateEditPrice,
		"3": conversation.StateEditDescription,
		"4": conversation.StateEditColors,
		"5": conversation.StateEditStock,
		"6": conversation.StateEditImages,
	}
	for choice, state := range want {
		got, ok := EditChoiceState(choice)
		assert.True(t, ok)
		assert.Equal(t, state, got)
	}
	_, ok := EditChoiceState("7")
	assert.False(t, ok)
}

func TestParseIndexAndNumberedList(t *testing.T) {
	i, ok := ParseIndex(" 2 ", 3)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	for _, bad := range []string{"0", "4", "x", ""} {
		_, ok := ParseIndex(bad, 3)
		assert.False(t, ok, bad)
	}

	assert.Equal(t, "1. Shoes\n2. Bags", NumberedList([]string{"Shoes", "Bags"}))
}
