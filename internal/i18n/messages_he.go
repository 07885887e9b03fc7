package i18n

var messagesHE = map[string]string{
	// General
	"welcome_message":  "👋 ברוכים הבאים לעוזר החנות! אעזור לכם לנהל את הקטלוג ישירות מהצ'אט.",
	"main_menu":        "תפריט ראשי:\n1. הוספת מוצר\n2. ניהול חנות\n3. דוחות\n4. הגדרות\n\nהשיבו במספר או לחצו על כפתור.",
	"invalid_input":    "מצטערים, לא הבנתי.",
	"generic_error":    "משהו השתבש אצלנו. נסו שוב.",
	"unauthorized":     "חשבון זה אינו רשום כמפעיל חנות. פנו לתמיכה.",
	"rate_limited":     "אתם שולחים הודעות מהר מדי. המתינו רגע ונסו שוב.",
	"session_expired":  "לא ניתן היה להמשיך את השיחה הקודמת. חוזרים לתפריט הראשי.",
	"language_prompt":  "בחרו שפה:",
	"language_changed": "✅ השפה עודכנה.",
	"reset_done":       "🔄 השיחה אופסה.",

	// Buttons
	"btn_language":          "🌐 שפה",
	"btn_reset":             "🔄 איפוס",
	"btn_main_menu":         "🏠 תפריט ראשי",
	"btn_add_product":       "הוספת מוצר",
	"btn_manage_store":      "ניהול חנות",
	"btn_reports":           "דוחות",
	"btn_settings":          "הגדרות",
	"btn_english":           "English",
	"btn_hebrew":            "עברית",
	"btn_yes":               "כן",
	"btn_no":                "לא",
	"btn_vat_included":      "כולל מע\"מ",
	"btn_vat_excluded":      "לא כולל מע\"מ",
	"btn_done":              "סיום",
	"btn_publish":           "פרסום",
	"btn_edit":              "עריכה",
	"btn_cancel":            "ביטול",
	"btn_new_category":      "קטגוריה חדשה",
	"btn_add_category":      "הוספת קטגוריה",
	"btn_list_categories":   "קטגוריות",
	"btn_manage_products":   "מוצרים",
	"btn_rename":            "שינוי שם",
	"btn_category_products": "מוצרים",
	"btn_all_products":      "כל המוצרים",
	"btn_delete":            "מחיקה",
	"btn_keep":              "השארה",
	"btn_add_variants":      "הוספת וריאציות",
	"btn_leave":             "להשאיר כך",
	"btn_save":              "שמירת שינויים",
	"btn_discard":           "ביטול שינויים",
	"btn_back":              "חזרה",
	"btn_fix_name":          "שם",
	"btn_fix_price":         "מחיר",
	"btn_fix_description":   "תיאור",
	"btn_fix_colors":        "צבעים",
	"btn_fix_stock":         "מלאי",
	"btn_options":           "אפשרויות",
	"btn_fix_images":        "תמונות",

	// Add product
	"product_ask_name":           "מה שם המוצר?",
	"product_ask_category":       "בחרו קטגוריה לפי מספר, או כתבו \"new\" ליצירת קטגוריה חדשה:\n{list}",
	"product_ask_category_empty": "אין עדיין קטגוריות בחנות. כתבו \"new\" ליצירת קטגוריה.",
	"product_ask_new_category":   "כתבו את שם הקטגוריה החדשה:",
	"product_ask_price":          "מה המחיר? מספרים בלבד, למשל 49.90",
	"product_ask_vat":            "האם המחיר {price} כולל מע\"מ ({vat}%)?",
	"product_ask_description":    "כתבו תיאור קצר למוצר:",
	"product_ask_variations":     "האם המוצר מגיע בצבעים או מידות שונים?",
	"product_ask_simple_stock":   "כמה יחידות יש במלאי?",
	"product_ask_colors":         "רשמו את הצבעים מופרדים בפסיקים (למשל אדום, כחול):",
	"product_ask_sizes":          "רשמו את המידות מופרדות בפסיקים (למשל S, M, L) או טווח מספרי (למשל 36-42):",
	"product_ask_size_step":      "מידות {start} עד {end}: מה הקפיצה בין מידה למידה? (למשל 1 או 2)",
	"product_sizes_invalid":      "יש לרשום רשימה מופרדת בפסיקים או טווח כמו 36-42, עד {max} מידות.",
	"product_ask_stock":          "מלאי לצבע {color}: שלחו {count} מספרים עבור המידות {sizes}, מופרדים בפסיקים.",
	"stock_wrong_count":          "ציפיתי ל-{expected} מספרים אבל התקבלו {got}.",
	"stock_not_number":           "\"{token}\" אינו מספר שלם.",
	"stock_negative":             "המלאי לא יכול להיות שלילי ({token}).",
	"product_ask_images":         "שלחו עכשיו תמונות של המוצר. כתבו \"done\" בסיום.",
	"image_received":             "📷 תמונה {count} התקבלה. שלחו עוד או כתבו \"done\".",
	"product_summary":            "📦 {name}\nקטגוריה: {category}\nמחיר: {price}\nתיאור: {description}\nמלאי:\n{stock}\nתמונות: {images}",
	"summary_simple_stock":       "{count} יחידות",
	"summary_no_variants":        "אין וריאציות",
	"product_confirm":            "לפרסם את המוצר, לערוך אותו או לבטל?",
	"product_published":          "✅ \"{name}\" פורסם עם {count} וריאציות.",
	"product_discarded":          "המוצר בוטל.",
	"fix_menu":                   "מה תרצו לתקן?\n1. שם\n2. מחיר\n3. תיאור\n4. צבעים\n5. מלאי\n6. תמונות",
	"edit_ask_name":              "כתבו את שם המוצר החדש:",
	"edit_ask_images":            "שלחו את התמונות החדשות. הן יחליפו את הקיימות. כתבו \"done\" בסיום.",

	// Manage product
	"product_select":           "בחרו מוצר לפי מספר:\n{list}",
	"product_none":             "לא נמצאו מוצרים.",
	"product_keep_or_edit":     "להשאיר את המוצר כפי שהוא או לערוך אותו?",
	"product_missing_variants": "⚠️ ל-\"{name}\" אין עדיין וריאציות ולכן לא ניתן לקנות אותו. להוסיף וריאציות עכשיו?",
	"product_update_confirm":   "לשמור את השינויים, להמשיך לערוך או לבטל אותם?",
	"product_updated":          "✅ \"{name}\" עודכן.",
	"changes_discarded":        "השינויים בוטלו.",

	// Manage store
	"manageStore_menu":                  "ניהול חנות:\n1. הוספת קטגוריה\n2. קטגוריות\n3. ניהול מוצרים",
	"manageStore_askCategoryName":       "כתבו את שם הקטגוריה:",
	"manageStore_categoryExists":        "קטגוריה בשם \"{name}\" כבר קיימת. בחרו שם אחר.",
	"manageStore_categoryCreated":       "✅ הקטגוריה \"{name}\" נוצרה.",
	"manageStore_selectCategory":        "בחרו קטגוריה לפי מספר:\n{list}",
	"manageStore_noCategories":          "אין עדיין קטגוריות.",
	"manageStore_categoryActions":       "קטגוריה \"{name}\":\n1. שינוי שם\n2. מוצרים\n3. מחיקה",
	"manageStore_askRename":             "כתבו שם חדש עבור \"{name}\":",
	"manageStore_categoryRenamed":       "✅ שם הקטגוריה שונה ל-\"{name}\".",
	"manageStore_categoryDeleted":       "🗑 הקטגוריה \"{name}\" נמחקה.",
	"manageStore_categoryNotEmpty":      "ב-\"{name}\" יש עדיין {count} מוצרים ולכן לא ניתן למחוק אותה.",
	"manageStore_selectProductCategory": "בחרו קטגוריה לניהול המוצרים שלה, או 0 לכל המוצרים:\n{list}",

	// Settings and reports
	"settings_menu":   "הגדרות:\n1. שפה\n2. איפוס שיחה\n3. חזרה",
	"reports_summary": "📊 דוח חנות\nהזמנות: {orders}\nהכנסות: {revenue}\nמוצרים: {products}\nקטגוריות: {categories}",
}
