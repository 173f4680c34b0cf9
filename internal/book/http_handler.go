package book

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"librarycatalog/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

// Details handles GET /book_dtls
// @Summary Get book details
// @Description Title, flattened author name and copies of a book
// @Tags books
// @Produce json
// @Param id query string true "Book id (24 hex characters)"
// @Success 200 {object} book.Details
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /book_dtls [get]
func (h *HTTPHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.URL.Query().Get("id"))
	if err != nil {
		h.reject(w, r, err)
		return
	}

	details, err := h.service.GetDetails(r.Context(), id)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			httpx.Text(w, http.StatusNotFound, notFound.Error())
			return
		}
		httpx.Text(w, http.StatusInternalServerError, (&LookupError{ID: id}).Error())
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

// Create handles POST /newbook
// @Summary Create a book
// @Description Creates a book, reusing an existing author and genre when the names match
// @Tags books
// @Accept json
// @Produce json
// @Param body body book.CreateRequest true "New book"
// @Success 200 {object} book.CreatedBook
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {string} string
// @Router /newbook [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Could not read request body", nil)
		return
	}

	req, err := ParseCreateRequest(body)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Text(w, http.StatusInternalServerError, (&CreationError{Title: req.BookTitle}).Error())
		return
	}
	httpx.JSON(w, http.StatusOK, created)
}

func (h *HTTPHandler) reject(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid input", nil)
		return
	}
	h.logger.Debug("request rejected", "field", rejected.Field, "reason", rejected.Reason)
	httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", rejected.Error(), []httpx.ErrorDetail{
		{Field: rejected.Field, Message: rejected.Error()},
	})
}
