package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarycatalog/internal/book"
	"librarycatalog/internal/book/mocks"
	"librarycatalog/internal/entity"
	"librarycatalog/internal/httpx"
	"librarycatalog/internal/testutil"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, pingErr error, mutate func(*Options)) (http.Handler, *mocks.MockStore) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	store := mocks.NewMockStore(ctrl)
	logger := testutil.DiscardLogger()

	opts := Options{
		Logger:       logger,
		Books:        book.NewHTTPHandler(book.NewService(store, logger), logger),
		Store:        stubPinger{err: pingErr},
		MaxBodyBytes: 1 << 20,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewRouter(opts), store
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", w.Body.String())
}

func TestRouter_NotReady(t *testing.T) {
	router, _ := newTestRouter(t, errors.New("connection refused"), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_BookDetails(t *testing.T) {
	router, store := newTestRouter(t, nil, nil)
	id := testutil.TestBookID

	store.EXPECT().GetBook(gomock.Any(), id).Return(entity.Book{
		Title:  "Gora",
		Author: &entity.Author{FamilyName: "Tagore"},
	}, nil)
	store.EXPECT().ListInstances(gomock.Any(), id).Return([]entity.BookInstance{
		{Imprint: "I1", Status: entity.StatusAvailable},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/book_dtls?id="+id, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"Gora","author":"Tagore","copies":[{"imprint":"I1","status":"Available"}]}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouter_NewBookRejectedBeforeStore(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	body := `{"familyName":"Tagore","firstName":"Robi","genreName":"Fiction","bookTitle":"<script>alert('XSS')</script>"}`
	req := httptest.NewRequest(http.MethodPost, "/newbook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, w.Body.String(), "Invalid input")
	assert.Equal(t, resp.Header.Get("X-Request-Id"), resp.Body["meta"].(map[string]any)["request_id"])
}

func TestRouter_MethodAndRouteMisses(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/book_dtls", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_OversizedBody(t *testing.T) {
	router, _ := newTestRouter(t, nil, func(o *Options) { o.MaxBodyBytes = 16 })

	req := httptest.NewRequest(http.MethodPost, "/newbook", strings.NewReader(strings.Repeat("x", 64)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	router, _ := newTestRouter(t, nil, func(o *Options) {
		o.AllowedOrigins = []string{"http://localhost:3000"}
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router, _ := newTestRouter(t, nil, func(o *Options) {
		o.RateLimiter = httpx.NewRateLimitMiddleware(ctx, 0.001, 1)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
