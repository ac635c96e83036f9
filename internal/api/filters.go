package api

import (
	"net/http"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/handler"
)

// Filter describes a registry entry
type Filter struct {
	Name      string                          `json:"name"`
	InputKeys []string                        `json:"input_keys"`
	Controls  []filter.Control                `json:"visible_controls"`
	Ranges    map[filter.Control]filter.Range `json:"ranges"`
	Default   bool                            `json:"default,omitempty"`
}

func (a *API) filtersHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	filters := []Filter{}
	for _, entry := range a.Registry.Entries() {
		caps := entry.Capabilities()
		visible := caps.Visible()

		ranges := make(map[filter.Control]filter.Range, len(visible))
		for _, control := range visible {
			ranges[control] = control.Range()
		}

		filters = append(filters, Filter{
			Name:      entry.Name,
			InputKeys: caps.Keys(),
			Controls:  visible,
			Ranges:    ranges,
			Default:   entry.Name == filter.DefaultName,
		})
	}

	return handler.JSON(w, http.StatusOK, filters)
}
