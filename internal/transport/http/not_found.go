package http

import "net/http"

// NotFoundHandler is the mux catch-all. It keeps unknown paths on the JSON
// error envelope instead of the mux's plain-text 404.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
}
