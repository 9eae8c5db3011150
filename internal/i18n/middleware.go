package i18n

import "net/http"

// Middleware picks a language for each request and stores a localizer in
// the request context. Priority: lang query parameter, then Accept-Language,
// then the configured default.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := r.URL.Query().Get("lang")
			accept := r.Header.Get("Accept-Language")

			loc := i18nLocalizer(lang, accept, defaultLang)
			if loc != nil {
				r = r.WithContext(WithLocalizer(r.Context(), loc))
			}
			next.ServeHTTP(w, r)
		})
	}
}
