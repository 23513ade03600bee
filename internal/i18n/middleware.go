package i18n

import "net/http"

// Middleware negotiates the language for every request and injects a
// matching localizer into its context. An explicit ?lang= query parameter
// wins over Accept-Language; lang is used when neither matches.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chosen := lang
			prefs := []string{r.URL.Query().Get("lang"), r.Header.Get("Accept-Language")}
			if prefs[0] != "" || prefs[1] != "" {
				chosen = Match(prefs...)
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(chosen))
			ctx = WithLang(ctx, chosen)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
