package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/params"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/gorilla/mux"
)

// FilterSelection is the state of a session after selecting a filter
type FilterSelection struct {
	session.State
	ReviewRequested bool `json:"review_requested"`
}

func (a *API) getSession(r *http.Request) (*session.Session, *handler.Error) {
	s, err := a.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		return nil, handler.NotFound("Session does not exist")
	}

	return s, nil
}

func (a *API) createSessionHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, err := a.Sessions.Create()
	if err != nil {
		a.logError(r, "error creating session", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Location", "/sessions/"+s.ID())
	return handler.JSON(w, http.StatusCreated, s.State())
}

func (a *API) sessionHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	return handler.JSON(w, http.StatusOK, s.State())
}

func (a *API) deleteSessionHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	if err := a.Sessions.Delete(mux.Vars(r)["id"]); err != nil {
		return handler.NotFound("Session does not exist")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Imports the request body, or a library photo given by the photo query parameter
func (a *API) importHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	var load session.LoaderFunc
	if photoID := r.URL.Query().Get("photo"); photoID != "" {
		load = func(ctx context.Context) ([]byte, error) {
			return a.Storage.Get(ctx, photoID)
		}
	} else {
		body := http.MaxBytesReader(w, r.Body, a.MaxUploadSize)
		load = func(ctx context.Context) ([]byte, error) {
			return io.ReadAll(body)
		}
	}

	err := <-s.Import(r.Context(), load)

	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
		return handler.JSON(w, http.StatusOK, s.State())
	case errors.Is(err, storage.ErrNotFound):
		return handler.NotFound(storage.ErrNotFound.Error())
	case errors.Is(err, session.ErrInvalidImage):
		return handler.UnprocessableEntity("Invalid image")
	case errors.As(err, &maxBytesErr):
		return &handler.Error{Message: "Image too large", Code: http.StatusRequestEntityTooLarge}
	}

	a.logError(r, "error importing image", err)
	return handler.InternalServerError()
}

func (a *API) filterHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	name, err := params.GetFilterName(r)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	state, reviewRequested, err := s.SelectFilter(r.Context(), name)
	switch {
	case errors.Is(err, session.ErrNoPicture):
		return handler.Conflict("No Picture")
	case errors.Is(err, session.ErrUnknownFilter):
		return handler.BadRequest("Unknown filter")
	case err != nil:
		a.logError(r, "error selecting filter", err)
		return handler.InternalServerError()
	}

	return handler.JSON(w, http.StatusOK, FilterSelection{
		State:           state,
		ReviewRequested: reviewRequested,
	})
}

func (a *API) controlsHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	update, err := params.GetControls(r)
	if err != nil {
		return handler.BadRequest(params.ErrInvalidControls.Error())
	}

	state, err := s.SetControls(r.Context(), update)
	if errors.Is(err, session.ErrNoPicture) {
		return handler.Conflict("No Picture")
	}

	if err != nil {
		a.logError(r, "error setting controls", err)
		return handler.InternalServerError()
	}

	return handler.JSON(w, http.StatusOK, state)
}
