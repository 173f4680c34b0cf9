package book_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarycatalog/internal/book"
	"librarycatalog/internal/book/mocks"
	"librarycatalog/internal/entity"
	"librarycatalog/internal/testutil"
)

func newHandler(t *testing.T) (*book.HTTPHandler, *mocks.MockStore) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	store := mocks.NewMockStore(ctrl)
	logger := testutil.DiscardLogger()
	return book.NewHTTPHandler(book.NewService(store, logger), logger), store
}

func TestHTTPHandler_Details(t *testing.T) {
	id := testutil.TestBookID

	t.Run("success", func(t *testing.T) {
		handler, store := newHandler(t)
		store.EXPECT().GetBook(gomock.Any(), id).Return(entity.Book{
			Title:  "Gora",
			Author: &entity.Author{FamilyName: "Tagore"},
		}, nil)
		store.EXPECT().ListInstances(gomock.Any(), id).Return([]entity.BookInstance{
			{Imprint: "I1", Status: entity.StatusAvailable},
		}, nil)

		w := httptest.NewRecorder()
		handler.Details(w, httptest.NewRequest(http.MethodGet, "/book_dtls?id="+id, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"title":"Gora","author":"Tagore","copies":[{"imprint":"I1","status":"Available"}]}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		handler, store := newHandler(t)
		store.EXPECT().GetBook(gomock.Any(), id).Return(entity.Book{}, book.ErrNotFound)
		store.EXPECT().ListInstances(gomock.Any(), id).Return(nil, nil)

		w := httptest.NewRecorder()
		handler.Details(w, httptest.NewRequest(http.MethodGet, "/book_dtls?id="+id, nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Book "+id+" not found", w.Body.String())
	})

	t.Run("lookup error", func(t *testing.T) {
		handler, store := newHandler(t)
		store.EXPECT().GetBook(gomock.Any(), id).Return(entity.Book{}, nil)
		store.EXPECT().ListInstances(gomock.Any(), id).Return(nil, errors.New("Database error"))

		w := httptest.NewRecorder()
		handler.Details(w, httptest.NewRequest(http.MethodGet, "/book_dtls?id="+id, nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Error fetching book "+id, w.Body.String())
	})

	rejected := []struct {
		name  string
		query string
	}{
		{"missing id", ""},
		{"empty id", "?id="},
		{"short id", "?id=abc123"},
		{"script id", "?id=" + url.QueryEscape(`<script> document.body.innerHTML = "<a href='https://google.com'> Gotcha </a>"</script>`)},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newHandler(t)

			w := httptest.NewRecorder()
			handler.Details(w, httptest.NewRequest(http.MethodGet, "/book_dtls"+tt.query, nil))

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, false, resp.Body["success"])
		})
	}
}

func TestHTTPHandler_Create(t *testing.T) {
	validBody := map[string]any{
		"familyName": "Tagore",
		"firstName":  "Robi",
		"genreName":  "Fiction",
		"bookTitle":  "Gora",
		"summary":    "A summary of Gora",
		"isbn":       "1234567890",
	}

	t.Run("existing author and genre", func(t *testing.T) {
		handler, store := newHandler(t)
		store.EXPECT().FindAuthor(gomock.Any(), "Tagore", "Robi").Return(testutil.TestAuthor, nil)
		store.EXPECT().FindGenre(gomock.Any(), "Fiction").Return(testutil.TestGenre, nil)
		store.EXPECT().CreateBook(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, b *entity.Book) error {
			b.ID = testutil.TestBookID
			return nil
		})

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/newbook", validBody))

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "Gora", resp.Body["title"])
		assert.Equal(t, "A summary of Gora", resp.Body["summary"])
		assert.Equal(t, "1234567890", resp.Body["isbn"])
		assert.Contains(t, resp.Body, "author")
		assert.Contains(t, resp.Body, "genre")

		author, ok := resp.Body["author"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Tagore", author["familyName"])
	})

	t.Run("creation fails", func(t *testing.T) {
		handler, store := newHandler(t)
		store.EXPECT().FindAuthor(gomock.Any(), "Tagore", "Robi").Return(testutil.TestAuthor, nil)
		store.EXPECT().FindGenre(gomock.Any(), "Fiction").Return(testutil.TestGenre, nil)
		store.EXPECT().CreateBook(gomock.Any(), gomock.Any()).Return(errors.New("Database error"))

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/newbook", validBody))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Error creating book: Gora", w.Body.String())
	})

	rejected := []struct {
		name         string
		body         string
		wantContains string
	}{
		{
			name: "absent property",
			body: `{"familyName":"Tagore","firstName":"Robi","genreName":"Fiction"}`,
		},
		{
			name: "operator injection",
			body: `{"familyName":{"$ne":""},"firstName":"Robi","genreName":"Fiction","bookTitle":"Gora"}`,
		},
		{
			name:         "xss in title",
			body:         `{"familyName":"Tagore","firstName":"Robi","genreName":"Fiction","bookTitle":"<script>alert('XSS')</script>"}`,
			wantContains: "Invalid input",
		},
		{
			name: "empty body",
			body: ``,
		},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newHandler(t)

			w := httptest.NewRecorder()
			handler.Create(w, testutil.NewRawRequest(http.MethodPost, "/newbook", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			if tt.wantContains != "" {
				assert.Contains(t, w.Body.String(), tt.wantContains)
			}
		})
	}
}
