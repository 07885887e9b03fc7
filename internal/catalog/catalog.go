// Package catalog holds the store catalog entities, the gateway the
// conversation handlers use to read and write them, and the pure helpers
// behind the product wizard (pricing, stock and size parsing, variant generation).
package catalog

import (
	"context"
	"time"
)

// Store is a merchant store owned by one or more operators.
type Store struct {
	ID        int64
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Operator is a registered store operator allowed to talk to the bot.
type Operator struct {
	ID         int64
	StoreID    int64
	Name       string
	Phone      string // WhatsApp address, digits only
	LineUserID string
	Language   string
}

// Category groups products of a store. ParentID is nil for top-level categories.
type Category struct {
	ID           int64
	StoreID      int64
	ParentID     *int64
	Name         string
	ProductCount int
	CreatedAt    time.Time
}

// Product is a catalog product with its purchasable variants.
type Product struct {
	ID          int64
	StoreID     int64
	CategoryID  int64
	Name        string
	Description string
	BaseSKU     string
	Price       float64
	Images      []string
	Variants    []Variant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant is one colour/size combination of a product.
type Variant struct {
	ID        int64
	ProductID int64
	SKU       string
	Price     float64
	Stock     int
	Options   []Option
}

// Option is a named variant attribute such as Color=Red.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Option names used by generated variants.
const (
	OptionColor = "Color"
	OptionSize  = "Size"
)

// Option returns the value of the named option, empty if absent.
func (v Variant) Option(name string) string {
	for _, o := range v.Options {
		if o.Name == name {
			return o.Value
		}
	}
	return ""
}

// OrderStats summarizes the orders of a store.
type OrderStats struct {
	Count int
	Total float64
}

// Gateway is the catalog persistence used by the conversation handlers.
// Multi-row writes (product plus variants) are atomic. Find methods return
// nil, nil when the entity does not exist.
type Gateway interface {
	CreateCategory(ctx context.Context, storeID int64, parentID *int64, name string) (*Category, error)
	FindCategory(ctx context.Context, storeID, id int64) (*Category, error)
	FindCategoryByName(ctx context.Context, storeID int64, name string) (*Category, error)
	ListCategories(ctx context.Context, storeID int64, parentID *int64) ([]Category, error)
	RenameCategory(ctx context.Context, storeID, id int64, name string) error
	DeleteCategory(ctx context.Context, storeID, id int64) error

	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	FindProduct(ctx context.Context, storeID, id int64) (*Product, error)
	ListProducts(ctx context.Context, storeID, categoryID int64) ([]Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	CountProducts(ctx context.Context, storeID int64) (int, error)

	OrderStats(ctx context.Context, storeID int64) (OrderStats, error)
}

// OperatorDirectory resolves channel addresses to registered operators.
type OperatorDirectory interface {
	FindOperatorByPhone(ctx context.Context, phone string) (*Operator, error)
	FindOperatorByLineUser(ctx context.Context, lineUserID string) (*Operator, error)
	FindOperator(ctx context.Context, id int64) (*Operator, error)
}
