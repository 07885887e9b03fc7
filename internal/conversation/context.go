package conversation

import (
	"fmt"
	"slices"
)

// Flow tags which payload a Context carries.
type Flow string

// Flow families
const (
	FlowNone     Flow = ""
	FlowProduct  Flow = "product"
	FlowCategory Flow = "category"
)

// Origin tells the fix menu where to rejoin once an edit completes.
type Origin string

// Draft origins
const (
	OriginNew      Origin = "new"
	OriginExisting Origin = "existing"
)

// Context is the per-identity flow context persisted with the record.
// Language and StoreID survive a reset; everything else belongs to the flow in progress.
type Context struct {
	Language string             `json:"language"`
	StoreID  int64              `json:"storeId"`
	Flow     Flow               `json:"flow,omitempty"`
	Draft    *Draft             `json:"draft,omitempty"`
	Category *CategorySelection `json:"category,omitempty"`

	// Choices holds the entity IDs behind the last numbered list shown,
	// so "2" resolves to what the operator actually saw.
	Choices []int64 `json:"choices,omitempty"`
}

// Draft is the in-progress product of the add-product wizard or of an
// edit session on an existing product.
type Draft struct {
	Origin      Origin           `json:"origin"`
	ProductID   int64            `json:"productId,omitempty"`
	BaseSKU     string           `json:"baseSku,omitempty"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	CategoryID  int64            `json:"categoryId,omitempty"`
	Price       float64          `json:"price,omitempty"`
	FinalPrice  float64          `json:"finalPrice,omitempty"`
	Colors      []string         `json:"colors,omitempty"`
	Sizes       []string         `json:"sizes,omitempty"`
	Stock       map[string][]int `json:"stock,omitempty"`
	ColorIndex  int              `json:"colorIndex,omitempty"`
	RangeStart  int              `json:"rangeStart,omitempty"`
	RangeEnd    int              `json:"rangeEnd,omitempty"`
	Images      []string         `json:"images,omitempty"`

	// Editing is set while the draft is inside a fix-menu sub-flow; the
	// variant collection states then rejoin the summary instead of moving on to images.
	Editing bool `json:"editing,omitempty"`
}

// CategorySelection is the category picked in the manage-store flow.
type CategorySelection struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name,omitempty"`
}

// Reset reduces the context to language and store.
func (c *Context) Reset() {
	*c = Context{Language: c.Language, StoreID: c.StoreID}
}

// ClearFlow drops any flow payload and list choices.
func (c *Context) ClearFlow() {
	c.Flow = FlowNone
	c.Draft = nil
	c.Category = nil
	c.Choices = nil
}

// StartDraft switches the context to the product family.
func (c *Context) StartDraft(d *Draft) {
	c.Flow = FlowProduct
	c.Draft = d
	c.Category = nil
}

// SelectCategory switches the context to the category family.
func (c *Context) SelectCategory(id int64, name string) {
	c.Flow = FlowCategory
	c.Draft = nil
	c.Category = &CategorySelection{CategoryID: id, Name: name}
}

// Clone returns a deep copy.
func (c Context) Clone() Context {
	out := c
	out.Choices = slices.Clone(c.Choices)
	if c.Draft != nil {
		out.Draft = c.Draft.Clone()
	}
	if c.Category != nil {
		cat := *c.Category
		out.Category = &cat
	}
	return out
}

// Validate checks that the payload required by state is present and consistent.
func (c Context) Validate(state State) error {
	switch state.Flow() {
	case FlowProduct:
		if c.Flow != FlowProduct || c.Draft == nil {
			return fmt.Errorf("state %s requires a product draft", state)
		}
		return c.Draft.validate(state)
	case FlowCategory:
		if c.Flow != FlowCategory || c.Category == nil || c.Category.CategoryID <= 0 {
			return fmt.Errorf("state %s requires a selected category", state)
		}
	}
	return nil
}

func (d *Draft) validate(state State) error {
	switch state {
	case StateAwaitingSizes:
		if len(d.Colors) == 0 {
			return fmt.Errorf("state %s requires colours", state)
		}
	case StateAwaitingSizeStep:
		if d.RangeEnd < d.RangeStart {
			return fmt.Errorf("state %s requires a pending size range", state)
		}
	case StateAwaitingStock:
		return d.validateStockWalk(state)
	case StateEditStock:
		if !d.IsSimple() {
			return d.validateStockWalk(state)
		}
	case StateProductSummary, StateAwaitingUpdate:
		if d.Origin != OriginExisting || d.ProductID <= 0 {
			return fmt.Errorf("state %s requires an existing product", state)
		}
	}
	return nil
}

func (d *Draft) validateStockWalk(state State) error {
	if len(d.Colors) == 0 || len(d.Sizes) == 0 {
		return fmt.Errorf("state %s requires colours and sizes", state)
	}
	if d.ColorIndex < 0 || d.ColorIndex >= len(d.Colors) {
		return fmt.Errorf("state %s colour index %d out of range", state, d.ColorIndex)
	}
	return nil
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Colors = slices.Clone(d.Colors)
	out.Sizes = slices.Clone(d.Sizes)
	out.Images = slices.Clone(d.Images)
	if d.Stock != nil {
		out.Stock = make(map[string][]int, len(d.Stock))
		for color, counts := range d.Stock {
			out.Stock[color] = slices.Clone(counts)
		}
	}
	return &out
}

// CurrentColor returns the colour the stock walk is asking about.
func (d *Draft) CurrentColor() string {
	if d.ColorIndex < 0 || d.ColorIndex >= len(d.Colors) {
		return ""
	}
	return d.Colors[d.ColorIndex]
}

// Simple product sentinel pair.
const (
	SimpleColor = "DEFAULT"
	SimpleSize  = "ONE_SIZE"
)

// IsSimple reports whether the draft carries the single sentinel colour/size pair.
func (d *Draft) IsSimple() bool {
	return IsSimple(d.Colors, d.Sizes)
}

// IsSimple reports whether colours and sizes are exactly the sentinel pair.
func IsSimple(colors, sizes []string) bool {
	return len(colors) == 1 && len(sizes) == 1 && colors[0] == SimpleColor && sizes[0] == SimpleSize
}

// SetSimpleStock turns the draft into a simple product with n units.
func (d *Draft) SetSimpleStock(n int) {
	d.Colors = []string{SimpleColor}
	d.Sizes = []string{SimpleSize}
	d.Stock = map[string][]int{SimpleColor: {n}}
	d.ColorIndex = 0
}

// TotalStock sums all stock counts.
func (d *Draft) TotalStock() int {
	total := 0
	for _, counts := range d.Stock {
		for _, n := range counts {
			total += n
		}
	}
	return total
}
