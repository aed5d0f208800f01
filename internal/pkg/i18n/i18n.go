// Package i18n resolves localized display strings and negotiates the request language.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

// Supported languages. English is the fallback for every lookup.
const (
	English = "en"
	Arabic  = "ar"
	French  = "fr"
)

var (
	supported = []language.Tag{language.English, language.Arabic, language.French}
	matcher   = language.NewMatcher(supported)
)

// Text holds one value per supported language
type Text struct {
	EN string `json:"en"`
	AR string `json:"ar,omitempty"`
	FR string `json:"fr,omitempty"`
}

// In returns the translation for lang, or the English value when there is none
func (t Text) In(lang string) string {
	switch lang {
	case Arabic:
		if t.AR != "" {
			return t.AR
		}
	case French:
		if t.FR != "" {
			return t.FR
		}
	}
	return t.EN
}

// String returns the English value
func (t Text) String() string {
	return t.EN
}

type ctxKey struct{}

// WithLanguage stores the active language on ctx
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// FromContext returns the active language, English when unset
func FromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && lang != "" {
		return lang
	}
	return English
}

// Negotiate picks the language for r from ?lang= or the Accept-Language header
func Negotiate(r *http.Request) string {
	if q := r.URL.Query().Get("lang"); q != "" {
		return Match(q)
	}
	if h := r.Header.Get("Accept-Language"); h != "" {
		return Match(h)
	}
	return English
}

// Match maps an arbitrary language string to a supported language code
func Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	base, _ := supported[idx].Base()
	return base.String()
}
