package params

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DMarby/instafilter/internal/hmac"
)

// HMAC generates and appends an HMAC to a URL path + query params
func HMAC(h *hmac.HMAC, path string, query url.Values) (string, error) {
	hmac, err := h.Create(path + BuildQuery(query))
	if err != nil {
		return "", err
	}

	query.Set("hmac", hmac)
	return path + BuildQuery(query), nil
}

// ValidateHMAC validates the URL path/query params, given an hmac in a query parameter named hmac
func ValidateHMAC(h *hmac.HMAC, r *http.Request) (bool, error) {
	// Get the query params in the request
	query := r.URL.Query()

	// Get the HMAC query param and remove it from the request query params
	hmac := query.Get("hmac")
	query.Del("hmac")

	encodedQuery := BuildQuery(query)
	return h.Validate(r.URL.Path+encodedQuery, hmac)
}

// ShareURL returns a signed path for downloading the output with the given render key until expires
func ShareURL(h *hmac.HMAC, key string, expires time.Time) (string, error) {
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires.Unix(), 10))

	return HMAC(h, "/share/"+url.PathEscape(key), query)
}

// ValidateShare validates the signature of a share URL, and that it hasn't expired at now
func ValidateShare(h *hmac.HMAC, r *http.Request, now time.Time) (bool, error) {
	valid, err := ValidateHMAC(h, r)
	if err != nil || !valid {
		return false, err
	}

	expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
	if err != nil {
		return false, nil
	}

	return now.Before(time.Unix(expires, 0)), nil
}
