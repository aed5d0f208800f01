package middleware

import (
	"net/http"

	"github.com/serviceinfo/serviceinfo/internal/pkg/i18n"
)

// Language negotiates the response language and stores it on the request context
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.Negotiate(r)
		w.Header().Set("Content-Language", lang)
		w.Header().Add("Vary", "Accept-Language")
		AddLogField(w, "lang", lang)
		next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), lang)))
	})
}
