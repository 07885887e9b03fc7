package i18n

var messagesEN = map[string]string{
	// General
	"welcome_message":  "👋 Welcome to your store assistant! I'll help you manage your catalog right from this chat.",
	"main_menu":        "Main menu:\n1. Add product\n2. Manage store\n3. Reports\n4. Settings\n\nReply with a number or tap a button.",
	"invalid_input":    "Sorry, I didn't understand that.",
	"generic_error":    "Something went wrong on our side. Please try again.",
	"unauthorized":     "This account is not registered as a store operator. Please contact support.",
	"rate_limited":     "You're sending messages too quickly. Please wait a moment and try again.",
	"session_expired":  "Your previous session could not be resumed. Back to the main menu.",
	"language_prompt":  "Choose your language:",
	"language_changed": "✅ Language updated.",
	"reset_done":       "🔄 Conversation reset.",

	// Buttons
	"btn_language":          "🌐 Language",
	"btn_reset":             "🔄 Reset",
	"btn_main_menu":         "🏠 Main menu",
	"btn_add_product":       "Add product",
	"btn_manage_store":      "Manage store",
	"btn_reports":           "Reports",
	"btn_settings":          "Settings",
	"btn_english":           "English",
	"btn_hebrew":            "עברית",
	"btn_yes":               "Yes",
	"btn_no":                "No",
	"btn_vat_included":      "Includes VAT",
	"btn_vat_excluded":      "Excludes VAT",
	"btn_done":              "Done",
	"btn_publish":           "Publish",
	"btn_edit":              "Edit",
	"btn_cancel":            "Cancel",
	"btn_new_category":      "New category",
	"btn_add_category":      "Add category",
	"btn_list_categories":   "Categories",
	"btn_manage_products":   "Products",
	"btn_rename":            "Rename",
	"btn_category_products": "Products",
	"btn_all_products":      "All products",
	"btn_delete":            "Delete",
	"btn_keep":              "Keep",
	"btn_add_variants":      "Add variants",
	"btn_leave":             "Leave as is",
	"btn_save":              "Save changes",
	"btn_discard":           "Discard",
	"btn_back":              "Back",
	"btn_fix_name":          "Name",
	"btn_fix_price":         "Price",
	"btn_fix_description":   "Description",
	"btn_fix_colors":        "Colours",
	"btn_fix_stock":         "Stock",
	"btn_options":           "Options",
	"btn_fix_images":        "Images",

	// Add product
	"product_ask_name":           "What's the product name?",
	"product_ask_category":       "Choose a category by number, or type \"new\" to create one:\n{list}",
	"product_ask_category_empty": "Your store has no categories yet. Type \"new\" to create one.",
	"product_ask_new_category":   "Type the new category name:",
	"product_ask_price":          "What's the price? Numbers only, e.g. 49.90",
	"product_ask_vat":            "Does the price {price} include VAT ({vat}%)?",
	"product_ask_description":    "Write a short product description:",
	"product_ask_variations":     "Does this product come in different colours or sizes?",
	"product_ask_simple_stock":   "How many units do you have in stock?",
	"product_ask_colors":         "List the colours, separated by commas (e.g. Red, Blue):",
	"product_ask_sizes":          "List the sizes separated by commas (e.g. S, M, L) or send a numeric range (e.g. 36-42):",
	"product_ask_size_step":      "Sizes {start} to {end}: what's the step between sizes? (e.g. 1 or 2)",
	"product_sizes_invalid":      "Sizes must be a comma-separated list or a range like 36-42, with at most {max} sizes.",
	"product_ask_stock":          "Stock for colour {color}: send {count} numbers for sizes {sizes}, separated by commas.",
	"stock_wrong_count":          "I expected {expected} numbers but got {got}.",
	"stock_not_number":           "\"{token}\" is not a whole number.",
	"stock_negative":             "Stock can't be negative ({token}).",
	"product_ask_images":         "Send product photos now. Type \"done\" when you're finished.",
	"image_received":             "📷 Photo {count} received. Send more or type \"done\".",
	"product_summary":            "📦 {name}\nCategory: {category}\nPrice: {price}\nDescription: {description}\nStock:\n{stock}\nPhotos: {images}",
	"summary_simple_stock":       "{count} units",
	"summary_no_variants":        "No variants",
	"product_confirm":            "Publish this product, edit it, or cancel?",
	"product_published":          "✅ \"{name}\" is live with {count} variants.",
	"product_discarded":          "Product discarded.",
	"fix_menu":                   "What would you like to fix?\n1. Name\n2. Price\n3. Description\n4. Colours\n5. Stock\n6. Images",
	"edit_ask_name":              "Type the new product name:",
	"edit_ask_images":            "Send the new photos. They will replace the current ones. Type \"done\" when you're finished.",

	// Manage product
	"product_select":           "Choose a product by number:\n{list}",
	"product_none":             "No products found.",
	"product_keep_or_edit":     "Keep this product as is, or edit it?",
	"product_missing_variants": "⚠️ \"{name}\" has no variants yet, so customers can't buy it. Add variants now?",
	"product_update_confirm":   "Save these changes, keep editing, or discard them?",
	"product_updated":          "✅ \"{name}\" updated.",
	"changes_discarded":        "Changes discarded.",

	// Manage store
	"manageStore_menu":                  "Manage store:\n1. Add category\n2. Categories\n3. Manage products",
	"manageStore_askCategoryName":       "Type the category name:",
	"manageStore_categoryExists":        "A category named \"{name}\" already exists. Please choose another name.",
	"manageStore_categoryCreated":       "✅ Category \"{name}\" created.",
	"manageStore_selectCategory":        "Choose a category by number:\n{list}",
	"manageStore_noCategories":          "There are no categories yet.",
	"manageStore_categoryActions":       "Category \"{name}\":\n1. Rename\n2. Products\n3. Delete",
	"manageStore_askRename":             "Type the new name for \"{name}\":",
	"manageStore_categoryRenamed":       "✅ Category renamed to \"{name}\".",
	"manageStore_categoryDeleted":       "🗑 Category \"{name}\" deleted.",
	"manageStore_categoryNotEmpty":      "\"{name}\" still has {count} products, so it can't be deleted.",
	"manageStore_selectProductCategory": "Choose a category to manage its products, or 0 for all products:\n{list}",

	// Settings and reports
	"settings_menu":   "Settings:\n1. Language\n2. Reset conversation\n3. Back",
	"reports_summary": "📊 Store report\nOrders: {orders}\nRevenue: {revenue}\nProducts: {products}\nCategories: {categories}",
}
