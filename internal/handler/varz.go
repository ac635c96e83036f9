package handler

import (
	"net/http"

	"tailscale.com/tsweb"
)

// VarzHandler serves the published expvars in the prometheus text format
func VarzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	tsweb.VarzHandler(w, r)
}
