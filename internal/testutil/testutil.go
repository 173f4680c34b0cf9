package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"librarycatalog/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TestBookID is a well formed book id for tests.
const TestBookID = "65a1f0c2e4b0a1b2c3d4e5f6"

// TestAuthor is a mock author for testing
var TestAuthor = entity.Author{
	ID:         "65a1f0c2e4b0a1b2c3d4e001",
	FamilyName: "Tagore",
	FirstName:  "Robi",
}

// TestGenre is a mock genre for testing
var TestGenre = entity.Genre{
	ID:   "65a1f0c2e4b0a1b2c3d4e002",
	Name: "Fiction",
}

// TestBook is a mock book for testing
var TestBook = entity.Book{
	ID:       TestBookID,
	Title:    "Gora",
	Summary:  "A summary of Gora",
	ISBN:     "1234567890",
	AuthorID: TestAuthor.ID,
	GenreIDs: []string{TestGenre.ID},
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRequest creates a new HTTP request for testing with body encoded as JSON
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRawRequest creates a new HTTP request with a literal JSON body
func NewRawRequest(method, path, body string) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Text   string
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response. Body stays nil for non-JSON bodies.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 && strings.HasPrefix(result.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Text:   string(bodyBytes),
		Body:   bodyMap,
	}
}
