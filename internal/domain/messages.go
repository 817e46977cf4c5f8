package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// MessageKey identifies a fixed user-facing message. Backend error detail is
// never shown to users; one of these is shown instead.
type MessageKey string

const (
	MsgLogoFailed        MessageKey = "logo_failed"
	MsgAnimationFailed   MessageKey = "animation_failed"
	MsgAnimationTimedOut MessageKey = "animation_timed_out"
	MsgNoSourceImage     MessageKey = "no_source_image"
)

const DefaultLocale = "en"

var supportedLocales = []language.Tag{
	language.English,
	language.Indonesian,
}

var localeMatcher = language.NewMatcher(supportedLocales)

var catalog = map[string]map[MessageKey]string{
	"en": {
		MsgLogoFailed:        "Failed to generate logo. Please try again.",
		MsgAnimationFailed:   "Failed to generate animation. Please try again.",
		MsgAnimationTimedOut: "Animation timed out. Please try again.",
		MsgNoSourceImage:     "Please generate or upload a logo first.",
	},
	"id": {
		MsgLogoFailed:        "Gagal membuat logo. Silakan coba lagi.",
		MsgAnimationFailed:   "Gagal membuat animasi. Silakan coba lagi.",
		MsgAnimationTimedOut: "Waktu pembuatan animasi habis. Silakan coba lagi.",
		MsgNoSourceImage:     "Silakan buat atau unggah logo terlebih dahulu.",
	},
}

var progressCatalog = map[string][]string{
	"en": {
		"Initializing video synthesis...",
		"Analyzing logo structure...",
		"Generating motion vectors...",
		"Rendering keyframes...",
		"Applying cinematic effects...",
		"Compositing final animation...",
		"Almost there, polishing the details...",
	},
	"id": {
		"Menyiapkan sintesis video...",
		"Menganalisis struktur logo...",
		"Membuat vektor gerak...",
		"Merender keyframe...",
		"Menerapkan efek sinematik...",
		"Menyusun animasi akhir...",
		"Hampir selesai, merapikan detail...",
	},
}

// NormalizeLocale maps a locale hint (a single tag or a full Accept-Language
// header) onto one of the supported locales.
func NormalizeLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	tag, _, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	base, _ := tag.Base()
	if _, ok := catalog[base.String()]; !ok {
		return DefaultLocale
	}
	return base.String()
}

// Message returns the localized text for key, falling back to English.
func Message(locale string, key MessageKey) string {
	if msgs, ok := catalog[locale]; ok {
		if text, ok := msgs[key]; ok {
			return text
		}
	}
	return catalog[DefaultLocale][key]
}

// ProgressMessages returns the ordered list of rotating status strings shown
// while a video is rendered. The returned slice must not be modified.
func ProgressMessages(locale string) []string {
	if msgs, ok := progressCatalog[locale]; ok {
		return msgs
	}
	return progressCatalog[DefaultLocale]
}
