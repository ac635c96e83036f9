package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/params"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/gorilla/mux"
)

// ShareTitle is the title of shared outputs, used as their filename
const ShareTitle = "Instafilter image"

// Share is a signed link to an output
type Share struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Filename string    `json:"filename"`
	Expires  time.Time `json:"expires"`
}

func (a *API) outputHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	output, ok := s.Output()
	if !ok {
		return handler.NotFound("No Picture")
	}

	format, err := params.GetFormat(r, output.Format)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	if format != output.Format {
		output, err = s.OutputAs(r.Context(), format)
		if errors.Is(err, session.ErrNoPicture) {
			return handler.NotFound("No Picture")
		}

		if err != nil {
			a.logError(r, "error rendering output", err)
			return handler.InternalServerError()
		}
	}

	etag := fmt.Sprintf("%q", output.Key)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	w.Header().Set("Content-Type", output.ContentType)
	w.Header().Set("Content-Disposition", "inline")
	w.Write(output.Data)

	return nil
}

func (a *API) shareHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	output, ok := s.Output()
	if !ok {
		return handler.Conflict("No Picture")
	}

	expires := time.Now().Add(a.ShareTTL).Truncate(time.Second)
	path, err := params.ShareURL(a.HMAC, output.Key, expires)
	if err != nil {
		a.logError(r, "error signing share url", err)
		return handler.InternalServerError()
	}

	return handler.JSON(w, http.StatusOK, Share{
		URL:      a.RootURL + path,
		Title:    ShareTitle,
		Filename: ShareTitle + output.Format.Extension(),
		Expires:  expires.UTC(),
	})
}

func (a *API) sharedOutputHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	valid, err := params.ValidateShare(a.HMAC, r, time.Now())
	if err != nil {
		a.logError(r, "error validating share url", err)
		return handler.InternalServerError()
	}

	if !valid {
		return &handler.Error{Message: "Invalid or expired link", Code: http.StatusUnauthorized}
	}

	data, err := a.Outputs.Cached(r.Context(), mux.Vars(r)["key"])
	if errors.Is(err, cache.ErrNotFound) {
		return handler.NotFound("Image does not exist")
	}

	if err != nil {
		a.logError(r, "error getting shared output", err)
		return handler.InternalServerError()
	}

	contentType := http.DetectContentType(data)
	format, err := pipeline.ParseFormat(strings.TrimPrefix(contentType, "image/"))
	if err != nil {
		a.logError(r, "unknown shared output format", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s%s\"", ShareTitle, format.Extension()))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)

	return nil
}
