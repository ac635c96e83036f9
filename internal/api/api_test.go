package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DMarby/instafilter/internal/api"
	"github.com/DMarby/instafilter/internal/cache/memory"
	"github.com/DMarby/instafilter/internal/counter"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/hmac"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/DMarby/instafilter/internal/review"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/tracing/test"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	fileLibrary "github.com/DMarby/instafilter/internal/library/file"
	mockLibrary "github.com/DMarby/instafilter/internal/library/mock"
	mockStorage "github.com/DMarby/instafilter/internal/storage/mock"
)

const rootURL = "https://example.com"

func encodedImage(t *testing.T) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 8), uint8(y * 10), 90, 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func setup(t *testing.T) (*api.API, []byte) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.New(zap.FatalLevel)
	tracer := test.Tracer(log)
	photo := encodedImage(t)

	manifest := filepath.Join(t.TempDir(), "library.json")
	if err := os.WriteFile(manifest, []byte(`[
		{"id": "1", "author": "John Doe", "url": "https://example.com/1", "width": 32, "height": 24},
		{"id": "2", "author": "Jane Doe", "url": "https://example.com/2", "width": 32, "height": 24}
	]`), 0644); err != nil {
		t.Fatal(err)
	}

	library, err := fileLibrary.New(manifest)
	if err != nil {
		t.Fatal(err)
	}

	storage := &mockStorage.Provider{Photos: map[string][]byte{"1": photo}}
	cache := memory.New(0)
	registry := filter.Default()
	processor := pipeline.New(ctx, log, tracer, 2, cache, 0)

	recorder := &review.Recorder{}
	counterStore := &counter.CacheStore{Provider: memory.New(0)}

	sessions := session.NewStore(session.Config{
		Log:       log,
		Registry:  registry,
		Processor: processor,
		Counter:   counter.New(counterStore, counter.DefaultThreshold, recorder.Request),
		Format:    pipeline.JPEG,
	}, time.Minute)

	checker := &health.Checker{Ctx: ctx, Storage: storage, Library: library, PhotoID: "1", Cache: cache, CounterStore: counterStore, Log: log}
	checker.Run()

	h, err := hmac.New("0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}

	return &api.API{
		Sessions:       sessions,
		Registry:       registry,
		Library:        library,
		Storage:        storage,
		Outputs:        processor,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		RootURL:        rootURL,
		HandlerTimeout: time.Minute,
		HMAC:           h,
		ShareTTL:       time.Hour,
		MaxUploadSize:  1 << 20,
	}, photo
}

func request(router http.Handler, method, url string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, url, reader))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("error decoding response %s", err)
	}
}

func TestAPI(t *testing.T) {
	a, _ := setup(t)
	router := a.Router()

	mockLibraryAPI, _ := setup(t)
	mockLibraryAPI.Library = &mockLibrary.Provider{}
	mockLibraryRouter := mockLibraryAPI.Router()

	tests := []struct {
		Name            string
		URL             string
		Router          http.Handler
		ExpectedStatus  int
		ExpectedHeaders map[string]string
	}{
		{
			Name:           "/health returns the status",
			URL:            "/health",
			Router:         router,
			ExpectedStatus: http.StatusOK,
			ExpectedHeaders: map[string]string{
				"Content-Type":  "application/json",
				"Cache-Control": "no-cache, no-store, must-revalidate",
			},
		},
		{
			Name:           "/library lists photos",
			URL:            "/library?limit=1",
			Router:         router,
			ExpectedStatus: http.StatusOK,
			ExpectedHeaders: map[string]string{
				"Content-Type": "application/json",
				"Link":         fmt.Sprintf("<%s/library?page=2&limit=1>; rel=\"next\"", rootURL),
			},
		},
		{
			Name:           "/library last page",
			URL:            "/library?page=2&limit=1",
			Router:         router,
			ExpectedStatus: http.StatusOK,
			ExpectedHeaders: map[string]string{
				"Link": fmt.Sprintf("<%s/library?page=1&limit=1>; rel=\"prev\", <%s/library?page=3&limit=1>; rel=\"next\"", rootURL, rootURL),
			},
		},
		{
			Name:           "/library past the end",
			URL:            "/library?page=3&limit=1",
			Router:         router,
			ExpectedStatus: http.StatusOK,
			ExpectedHeaders: map[string]string{
				"Link": fmt.Sprintf("<%s/library?page=2&limit=1>; rel=\"prev\"", rootURL),
			},
		},
		{
			Name:           "/library with a broken library",
			URL:            "/library",
			Router:         mockLibraryRouter,
			ExpectedStatus: http.StatusInternalServerError,
		},
		{
			Name:           "unknown session",
			URL:            "/sessions/nonexistant",
			Router:         router,
			ExpectedStatus: http.StatusNotFound,
		},
		{
			Name:           "unknown route",
			URL:            "/nonexistant",
			Router:         router,
			ExpectedStatus: http.StatusNotFound,
		},
		{
			Name:           "share without signature",
			URL:            "/share/abc",
			Router:         router,
			ExpectedStatus: http.StatusUnauthorized,
		},
	}

	for _, test := range tests {
		rr := request(test.Router, "GET", test.URL, nil)

		if rr.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v", test.Name, rr.Code)
			continue
		}

		for expectedHeader, expectedValue := range test.ExpectedHeaders {
			headerValue := rr.Header().Get(expectedHeader)
			if headerValue != expectedValue {
				t.Errorf("%s: wrong header value for %s, %#v", test.Name, expectedHeader, headerValue)
			}
		}

		if rr.Header().Get("X-Request-Id") == "" {
			t.Errorf("%s: missing request id", test.Name)
		}
	}
}

func TestFilters(t *testing.T) {
	a, _ := setup(t)

	rr := request(a.Router(), "GET", "/filters", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("wrong response code %d", rr.Code)
	}

	var filters []api.Filter
	decode(t, rr, &filters)

	entries := filter.Default().Entries()
	if len(filters) != len(entries) {
		t.Fatalf("wrong amount of filters %d", len(filters))
	}

	for i, f := range filters {
		if f.Name != entries[i].Name {
			t.Errorf("wrong filter at %d: %s", i, f.Name)
		}

		if f.Default != (f.Name == filter.DefaultName) {
			t.Errorf("%s: wrong default", f.Name)
		}

		if len(f.Ranges) != len(f.Controls) {
			t.Errorf("%s: missing ranges", f.Name)
		}
	}
}

func TestSession(t *testing.T) {
	a, photo := setup(t)
	router := a.Router()

	rr := request(router, "POST", "/sessions", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("wrong response code creating session %d", rr.Code)
	}

	var state session.State
	decode(t, rr, &state)

	base := "/sessions/" + state.ID
	if rr.Header().Get("Location") != base {
		t.Errorf("wrong location %s", rr.Header().Get("Location"))
	}

	t.Run("no picture", func(t *testing.T) {
		tests := []struct {
			Method string
			URL    string
			Body   string
			Status int
		}{
			{"GET", base + "/output", "", http.StatusNotFound},
			{"PATCH", base + "/controls", `{"radius": 10}`, http.StatusConflict},
			{"PUT", base + "/filter", `{"name": "Bloom"}`, http.StatusConflict},
			{"POST", base + "/share", "", http.StatusConflict},
			{"PUT", base + "/image", "not an image", http.StatusUnprocessableEntity},
			{"PUT", base + "/image?photo=nonexistant", "", http.StatusNotFound},
		}

		for _, test := range tests {
			if rr := request(router, test.Method, test.URL, []byte(test.Body)); rr.Code != test.Status {
				t.Errorf("%s %s: wrong response code %d", test.Method, test.URL, rr.Code)
			}
		}
	})

	t.Run("import", func(t *testing.T) {
		rr := request(router, "PUT", base+"/image", photo)
		if rr.Code != http.StatusOK {
			t.Fatalf("wrong response code %d", rr.Code)
		}

		decode(t, rr, &state)
		if !state.HasOutput || state.Filter != filter.DefaultName {
			t.Fatalf("wrong state %#v", state)
		}

		rr = request(router, "GET", base+"/output", nil)
		if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/jpeg" {
			t.Fatalf("wrong output response %d %s", rr.Code, rr.Header().Get("Content-Type"))
		}

		req := httptest.NewRequest("GET", base+"/output", nil)
		req.Header.Set("If-None-Match", rr.Header().Get("ETag"))
		cached := httptest.NewRecorder()
		router.ServeHTTP(cached, req)
		if cached.Code != http.StatusNotModified {
			t.Errorf("wrong response code for unchanged output %d", cached.Code)
		}
	})

	t.Run("output format", func(t *testing.T) {
		outputKey := state.OutputKey

		tests := []struct {
			Query               string
			ExpectedStatus      int
			ExpectedContentType string
		}{
			{"?format=png", http.StatusOK, "image/png"},
			{"?format=jpg", http.StatusOK, "image/jpeg"},
			{"?format=gif", http.StatusBadRequest, ""},
		}

		for _, test := range tests {
			rr := request(router, "GET", base+"/output"+test.Query, nil)
			if rr.Code != test.ExpectedStatus {
				t.Errorf("%s: wrong response code %d", test.Query, rr.Code)
				continue
			}

			if test.ExpectedContentType != "" && rr.Header().Get("Content-Type") != test.ExpectedContentType {
				t.Errorf("%s: wrong content type %s", test.Query, rr.Header().Get("Content-Type"))
			}
		}

		rr := request(router, "GET", base, nil)
		decode(t, rr, &state)
		if state.OutputKey != outputKey {
			t.Errorf("session output changed to %s", state.OutputKey)
		}
	})

	t.Run("import library photo", func(t *testing.T) {
		if rr := request(router, "PUT", base+"/image?photo=1", nil); rr.Code != http.StatusOK {
			t.Fatalf("wrong response code %d", rr.Code)
		}
	})

	t.Run("controls", func(t *testing.T) {
		tests := []struct {
			Body   string
			Status int
		}{
			{`{"intensity": 0.8}`, http.StatusOK},
			{`{"radius": 500}`, http.StatusOK},
			{`{}`, http.StatusBadRequest},
			{`{"brightness": 1}`, http.StatusBadRequest},
		}

		for _, test := range tests {
			if rr := request(router, "PATCH", base+"/controls", []byte(test.Body)); rr.Code != test.Status {
				t.Errorf("%s: wrong response code %d", test.Body, rr.Code)
			}
		}

		rr := request(router, "GET", base, nil)
		decode(t, rr, &state)
		if state.Controls.Intensity != 0.8 || state.Controls.Radius != 200 {
			t.Errorf("wrong controls %#v", state.Controls)
		}
	})

	t.Run("filter", func(t *testing.T) {
		rr := request(router, "PUT", base+"/filter", []byte(`{"name": "Gaussian Blur"}`))
		if rr.Code != http.StatusOK {
			t.Fatalf("wrong response code %d", rr.Code)
		}

		var selection api.FilterSelection
		decode(t, rr, &selection)
		if selection.Filter != "Gaussian Blur" || selection.ReviewRequested {
			t.Errorf("wrong selection %#v", selection)
		}

		if len(selection.Visible) != 1 || selection.Visible[0] != filter.Radius {
			t.Errorf("wrong visible controls %v", selection.Visible)
		}

		if rr := request(router, "PUT", base+"/filter", []byte(`{"name": "Lomo"}`)); rr.Code != http.StatusBadRequest {
			t.Errorf("wrong response code for unknown filter %d", rr.Code)
		}
	})

	t.Run("share", func(t *testing.T) {
		rr := request(router, "POST", base+"/share", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("wrong response code %d", rr.Code)
		}

		var share api.Share
		decode(t, rr, &share)

		if share.Filename != "Instafilter image.jpg" {
			t.Errorf("wrong filename %s", share.Filename)
		}

		path := strings.TrimPrefix(share.URL, rootURL)
		shared := request(router, "GET", path, nil)
		if shared.Code != http.StatusOK {
			t.Fatalf("wrong response code for shared output %d", shared.Code)
		}

		if disposition := shared.Header().Get("Content-Disposition"); disposition != `attachment; filename="Instafilter image.jpg"` {
			t.Errorf("wrong content disposition %s", disposition)
		}

		output := request(router, "GET", base+"/output", nil)
		if !bytes.Equal(shared.Body.Bytes(), output.Body.Bytes()) {
			t.Error("shared output differs from the session output")
		}

		tampered := strings.Replace(path, "hmac=", "hmac=x", 1)
		if rr := request(router, "GET", tampered, nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("wrong response code for tampered link %d", rr.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rr := request(router, "DELETE", base, nil); rr.Code != http.StatusNoContent {
			t.Fatalf("wrong response code %d", rr.Code)
		}

		if rr := request(router, "GET", base, nil); rr.Code != http.StatusNotFound {
			t.Errorf("wrong response code after delete %d", rr.Code)
		}

		if rr := request(router, "DELETE", base, nil); rr.Code != http.StatusNotFound {
			t.Errorf("wrong response code deleting twice %d", rr.Code)
		}
	})
}

func TestReviewRequest(t *testing.T) {
	a, photo := setup(t)
	router := a.Router()

	rr := request(router, "POST", "/sessions", nil)
	var state session.State
	decode(t, rr, &state)

	base := "/sessions/" + state.ID
	request(router, "PUT", base+"/image", photo)

	reviews := 0
	for i := 0; i < counter.DefaultThreshold+1; i++ {
		rr := request(router, "PUT", base+"/filter", []byte(`{"name": "Chrome"}`))
		if rr.Code != http.StatusOK {
			t.Fatalf("wrong response code %d", rr.Code)
		}

		var selection api.FilterSelection
		decode(t, rr, &selection)
		if selection.ReviewRequested {
			reviews++
		}
	}

	if reviews != 1 {
		t.Errorf("wrong amount of review requests %d", reviews)
	}
}

func TestEvents(t *testing.T) {
	a, photo := setup(t)
	ts := httptest.NewServer(a.Router())
	defer ts.Close()

	s, err := a.Sessions.Create()
	if err != nil {
		t.Fatal(err)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + s.ID() + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var event session.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}

	if event.Type != session.EventState || event.State.ID != s.ID() {
		t.Fatalf("wrong initial event %#v", event)
	}

	if err := <-s.Import(context.Background(), func(ctx context.Context) ([]byte, error) {
		return photo, nil
	}); err != nil {
		t.Fatal(err)
	}

	for _, expected := range []session.EventType{session.EventImage, session.EventOutput} {
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatal(err)
		}

		if event.Type != expected {
			t.Errorf("wrong event %s, expected %s", event.Type, expected)
		}
	}

	if !event.State.HasOutput {
		t.Error("output event without output")
	}

	// Ending the session closes the stream
	if err := a.Sessions.Delete(s.ID()); err != nil {
		t.Fatal(err)
	}

	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("wrong close error %v", err)
	}
}
