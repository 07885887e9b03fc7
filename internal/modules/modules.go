// Package modules assembles the topic handlers into the routing table.
package modules

import (
	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/catalog"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/modules/menu"
	"github.com/garyellow/storebot/internal/modules/product"
	"github.com/garyellow/storebot/internal/modules/settings"
	"github.com/garyellow/storebot/internal/modules/store"
	"github.com/garyellow/storebot/internal/modules/welcome"
)

// Dependencies are shared by the topic handlers.
type Dependencies struct {
	Gateway    catalog.Gateway
	VATPercent float64
	Metrics    *metrics.Metrics // optional
	Logger     *logger.Logger
}

// NewRegistry registers every topic handler.
func NewRegistry(deps Dependencies) *bot.Registry {
	settingsHandler := settings.NewHandler(deps.Gateway, deps.Logger)

	reg := bot.NewRegistry()
	reg.Register(welcome.NewHandler(deps.Logger))
	reg.Register(menu.NewHandler(settingsHandler.SendReport, deps.Logger))
	reg.Register(product.NewWizardHandler(deps.Gateway, deps.VATPercent, deps.Metrics, deps.Logger))
	reg.Register(product.NewManageHandler(deps.Gateway, deps.Metrics, deps.Logger))
	reg.Register(store.NewHandler(deps.Gateway, deps.Metrics, deps.Logger))
	reg.Register(settingsHandler)
	return reg
}

// NewRouter builds the routing table over every topic handler. It fails when
// the handlers leave a state unowned or claim one twice.
func NewRouter(deps Dependencies) (*bot.Router, error) {
	return NewRegistry(deps).Build()
}
