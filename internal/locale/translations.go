package locale

import "saadSocialAPI/internal/account"

var translations = map[account.Language]map[string]string{
	account.LanguageEnglish: {
		"app_name":         "Saad Social",
		"inbox":            "Inbox",
		"community":        "Community",
		"discovery":        "Discovery",
		"ai_assistant":     "AI Assistant",
		"settings":         "Settings",
		"requests":         "Requests",
		"accept":           "Accept",
		"ignore":           "Ignore",
		"no_active_chats":  "No active chats yet",
		"search_convos":    "Search conversations",
		"start_chatting":   "Start chatting",
		"type_message":     "Type a message...",
		"summarize":        "Summarize",
		"syncing":          "Syncing...",
		"display_name":     "Display name",
		"bio":              "Bio",
		"phone_visibility": "Show my phone number",
		"language":         "Language",
		"language_desc":    "Choose how the app speaks to you",
		"update_identity":  "Update identity",
		"success_profile":  "Profile updated successfully",
		"error_profile":    "Could not update your profile. Please try again.",
		"login_tagline":    "Connect with the people who matter.",
		"full_name":        "Full name",
		"email":            "Email",
		"phone_number":     "Phone number",
		"password":         "Password",
		"sign_in":          "Sign in",
		"new_member":       "New here? Create an account",
		"already_member":   "Already a member? Sign in",

		"error_duplicate_phone":     "Phone number already registered.",
		"error_invalid_credentials": "Invalid email or password. Please try again or join us!",
		"error_email_exists":        "This email is already in use.",
		"error_auth":                "We could not sign you in right now.",
		"error_backend_write":       "Your change could not be saved. Please try again.",
		"error_not_found":           "We could not find what you were looking for.",
		"error_validation":          "Some fields are missing or invalid.",
		"error_invalid_transition":  "That friend request action is not available.",
		"error_empty_content":       "Write something or attach a file first.",
		"error_image_too_large":     "Image is too large. Please select an image smaller than 1MB.",
		"error_microphone":          "Microphone access denied.",
		"error_unauthorized":        "Please sign in to continue.",
		"error_internal":            "Something went wrong on our side.",
	},
	account.LanguageArabic: {
		"app_name":         "سعد سوشيال",
		"inbox":            "الرسائل",
		"community":        "المجتمع",
		"discovery":        "اكتشاف",
		"ai_assistant":     "المساعد الذكي",
		"settings":         "الإعدادات",
		"requests":         "الطلبات",
		"accept":           "قبول",
		"ignore":           "تجاهل",
		"no_active_chats":  "لا توجد محادثات بعد",
		"search_convos":    "ابحث في المحادثات",
		"start_chatting":   "ابدأ الدردشة",
		"type_message":     "اكتب رسالة...",
		"summarize":        "تلخيص",
		"syncing":          "جارٍ المزامنة...",
		"display_name":     "الاسم المعروض",
		"bio":              "نبذة",
		"phone_visibility": "إظهار رقم هاتفي",
		"language":         "اللغة",
		"language_desc":    "اختر لغة التطبيق",
		"update_identity":  "تحديث الهوية",
		"success_profile":  "تم تحديث الملف الشخصي بنجاح",
		"error_profile":    "تعذر تحديث ملفك الشخصي. حاول مرة أخرى.",
		"login_tagline":    "تواصل مع من يهمك.",
		"full_name":        "الاسم الكامل",
		"email":            "البريد الإلكتروني",
		"phone_number":     "رقم الهاتف",
		"password":         "كلمة المرور",
		"sign_in":          "تسجيل الدخول",
		"new_member":       "جديد هنا؟ أنشئ حساباً",
		"already_member":   "لديك حساب؟ سجّل الدخول",

		"error_duplicate_phone":     "رقم الهاتف مسجل مسبقاً.",
		"error_invalid_credentials": "البريد الإلكتروني أو كلمة المرور غير صحيحة.",
		"error_email_exists":        "هذا البريد الإلكتروني مستخدم بالفعل.",
		"error_auth":                "تعذر تسجيل دخولك الآن.",
		"error_backend_write":       "تعذر حفظ التغيير. حاول مرة أخرى.",
		"error_not_found":           "لم نعثر على ما تبحث عنه.",
		"error_validation":          "بعض الحقول ناقصة أو غير صالحة.",
		"error_invalid_transition":  "هذا الإجراء غير متاح لطلب الصداقة.",
		"error_empty_content":       "اكتب شيئاً أو أرفق ملفاً أولاً.",
		"error_image_too_large":     "الصورة كبيرة جداً. اختر صورة أصغر من 1 ميغابايت.",
		"error_microphone":          "تم رفض الوصول إلى الميكروفون.",
		"error_unauthorized":        "سجّل الدخول للمتابعة.",
		"error_internal":            "حدث خطأ من جانبنا.",
	},
}
