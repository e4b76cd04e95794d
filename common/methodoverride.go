package common

import (
	"net/http"
)

type methodOverride struct {
	next http.Handler
}

// MethodOverride lets HTML forms issue PUT and DELETE requests. A POST
// carrying a _method value (query string or urlencoded form field) is
// rewritten to that verb before the router sees it, the same trick the
// classic method-override middlewares use. It wraps the router rather than
// running inside it so the rewritten verb takes part in route matching.
func MethodOverride(next http.Handler) http.Handler {
	return &methodOverride{next: next}
}

func (m *methodOverride) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		method := r.URL.Query().Get("_method")
		if method == "" && r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			// ParseForm is idempotent; the router reuses the parsed form
			if err := r.ParseForm(); err == nil {
				method = r.PostForm.Get("_method")
			}
		}
		switch method {
		case http.MethodPut, http.MethodPatch, http.MethodDelete:
			r.Method = method
		}
	}
	m.next.ServeHTTP(w, r)
}
