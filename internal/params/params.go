package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/pipeline"
)

// Errors
var (
	ErrInvalidControls = errors.New("Invalid controls")
	ErrInvalidFilter   = errors.New("Invalid filter")
	ErrInvalidFormat   = errors.New("Invalid format")
)

const (
	// Default number of items per page
	DefaultLimit = 30
	// Max number of items per page
	MaxLimit = 100

	maxBodySize = 1 << 20
)

// GetControls parses a partial control update from a JSON request body
func GetControls(r *http.Request) (filter.Update, error) {
	var update filter.Update
	if err := decodeBody(r, &update); err != nil {
		return update, fmt.Errorf("%w: %s", ErrInvalidControls, err)
	}

	if update.Empty() {
		return update, ErrInvalidControls
	}

	return update, nil
}

// GetFilterName parses the name of the filter to select from a JSON request body
func GetFilterName(r *http.Request) (string, error) {
	var body struct {
		Name string `json:"name"`
	}

	if err := decodeBody(r, &body); err != nil || body.Name == "" {
		return "", ErrInvalidFilter
	}

	return body.Name, nil
}

// GetFormat returns the output format from the format query parameter, or fallback if it isn't set
func GetFormat(r *http.Request, fallback pipeline.Format) (pipeline.Format, error) {
	value := r.URL.Query().Get("format")
	if value == "" {
		return fallback, nil
	}

	format, err := pipeline.ParseFormat(value)
	if err != nil {
		return "", ErrInvalidFormat
	}

	return format, nil
}

// GetLimit returns the page size from the limit query parameter
func GetLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	return limit
}

// GetPage returns the page number from the page query parameter
func GetPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	return page
}

func decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
