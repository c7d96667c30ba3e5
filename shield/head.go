package shield

import "net/http"

// HeadToGet rewrites HEAD to GET before routing. The admin endpoints are
// registered with r.Get() only; without this a HEAD request would see 405.
// net/http discards the body on HEAD responses, so handlers need no
// special casing.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
