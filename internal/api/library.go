package api

import (
	"fmt"
	"net/http"

	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/library"
	"github.com/DMarby/instafilter/internal/params"
)

// LibraryPhoto contains metadata about a library photo and how to import it
type LibraryPhoto struct {
	library.Photo
	ImportPath string `json:"import_path"`
}

// Paginated list, with `page` and `limit` query parameters
func (a *API) libraryHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	limit := params.GetLimit(r)
	page := params.GetPage(r)

	offset := limit * (page - 1)

	photos, err := a.Library.List(r.Context(), offset, limit)
	if err != nil {
		a.logError(r, "error getting photo list from library", err)
		return handler.InternalServerError()
	}

	list := []LibraryPhoto{}
	for _, photo := range photos {
		list = append(list, LibraryPhoto{
			Photo:      photo,
			ImportPath: fmt.Sprintf("/sessions/{id}/image?photo=%s", photo.ID),
		})
	}

	// If we've ran out of items, don't include the next page in the Link header
	end := len(list) < limit
	if link := a.getLinkHeader(page, limit, end); link != "" {
		w.Header().Set("Link", link)
	}

	return handler.JSON(w, http.StatusOK, list)
}

func (a *API) getLinkHeader(page, limit int, end bool) string {
	link := func(page int, rel string) string {
		return fmt.Sprintf("<%s/library?page=%d&limit=%d>; rel=\"%s\"", a.RootURL, page, limit, rel)
	}

	switch {
	case page == 1 && end:
		return ""
	case page == 1:
		return link(page+1, "next")
	case end:
		return link(page-1, "prev")
	}

	return link(page-1, "prev") + ", " + link(page+1, "next")
}
