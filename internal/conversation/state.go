// Package conversation defines the persisted conversation record of a store
// operator: the current state of the closed state machine, the tagged flow
// context, and the inbound/outbound message shapes exchanged per turn.
package conversation

// State identifies one step of the operator state machine.
type State string

// Welcome / language
const (
	StateInitial           State = "initial"
	StateWelcome           State = "welcome"
	StateLanguageSelection State = "language_selection"
)

// Main menu
const (
	StateMainMenu State = "mainMenu"
)

// Add-product wizard and variant collection
const (
	StateAwaitingName            State = "awaitingName"
	StateAwaitingCategory        State = "awaitingCategory"
	StateAwaitingNewCategoryName State = "awaitingNewCategoryName"
	StateAwaitingPrice           State = "awaitingPrice"
	StateAskVatInclusion         State = "askVatInclusion"
	StateAwaitingDescription     State = "awaitingDescription"
	StateAskVariations           State = "askVariations"
	StateAwaitingSimpleStock     State = "awaitingSimpleStock"
	StateAwaitingColors          State = "awaitingColors"
	StateAwaitingSizes           State = "awaitingSizes"
	StateAwaitingSizeStep        State = "awaitingSizeStep"
	StateAwaitingStock           State = "awaitingStock"
	StateAwaitingImages          State = "awaitingImages"
	StateAwaitingConfirmation    State = "awaitingConfirmation"
)

// Fix menu and edit sub-states shared by new and existing products
const (
	StateAwaitingFix     State = "awaitingFix"
	StateEditName        State = "editName"
	StateEditPrice       State = "editPrice"
	StateEditDescription State = "editDescription"
	StateEditColors      State = "editColors"
	StateEditStock       State = "editStock"
	StateEditImages      State = "editImages"
)

// Manage product
const (
	StateSelectProduct  State = "selectProduct"
	StateProductSummary State = "productSummary"
	StateAwaitingUpdate State = "awaitingUpdate"
)

// Manage store / categories
const (
	StateManageStore            State = "manageStore"
	StateAwaitingCategoryName   State = "awaitingCategoryName"
	StateSelectCategory         State = "selectCategory"
	StateCategoryActions        State = "categoryActions"
	StateAwaitingCategoryRename State = "awaitingCategoryRename"
	StateSelectProductCategory  State = "selectProductCategory"
)

// Settings
const (
	StateSettings State = "settings"
)

// AllStates is the closed enumeration every routing table must cover.
var AllStates = []State{
	StateInitial, StateWelcome, StateLanguageSelection,
	StateMainMenu,
	StateAwaitingName, StateAwaitingCategory, StateAwaitingNewCategoryName, StateAwaitingPrice,
	StateAskVatInclusion, StateAwaitingDescription, StateAskVariations, StateAwaitingSimpleStock,
	StateAwaitingColors, StateAwaitingSizes, StateAwaitingSizeStep, StateAwaitingStock,
	StateAwaitingImages, StateAwaitingConfirmation,
	StateAwaitingFix, StateEditName, StateEditPrice, StateEditDescription,
	StateEditColors, StateEditStock, StateEditImages,
	StateSelectProduct, StateProductSummary, StateAwaitingUpdate,
	StateManageStore, StateAwaitingCategoryName, StateSelectCategory, StateCategoryActions,
	StateAwaitingCategoryRename, StateSelectProductCategory,
	StateSettings,
}

var knownStates = func() map[State]struct{} {
	m := make(map[State]struct{}, len(AllStates))
	for _, s := range AllStates {
		m[s] = struct{}{}
	}
	return m
}()

// Valid reports whether s belongs to the closed enumeration.
func (s State) Valid() bool {
	_, ok := knownStates[s]
	return ok
}

func (s State) String() string { return string(s) }

// Flow returns the context family a state requires, FlowNone if any context is acceptable.
func (s State) Flow() Flow {
	switch s {
	case StateAwaitingCategory, StateAwaitingNewCategoryName, StateAwaitingPrice,
		StateAskVatInclusion, StateAwaitingDescription, StateAskVariations, StateAwaitingSimpleStock,
		StateAwaitingColors, StateAwaitingSizes, StateAwaitingSizeStep, StateAwaitingStock,
		StateAwaitingImages, StateAwaitingConfirmation,
		StateAwaitingFix, StateEditName, StateEditPrice, StateEditDescription,
		StateEditColors, StateEditStock, StateEditImages,
		StateProductSummary, StateAwaitingUpdate:
		return FlowProduct
	case StateCategoryActions, StateAwaitingCategoryRename:
		return FlowCategory
	default:
		return FlowNone
	}
}
