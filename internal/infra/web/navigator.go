package web

import "net/http"

// Navigator issues the two kinds of navigation the portal uses.
type Navigator struct{}

// Replace sends the browser elsewhere without leaving the guarded URL usable
// from history: the redirect itself must not be cached.
func (Navigator) Replace(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, path, http.StatusFound)
}

// Push moves forward after a successful form post.
func (Navigator) Push(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
