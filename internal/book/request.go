package book

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CreateRequest is a POST /newbook body that passed ParseCreateRequest.
type CreateRequest struct {
	FamilyName string `json:"familyName" validate:"required,max=100,nomarkup,nocontrol"`
	FirstName  string `json:"firstName" validate:"required,max=100,nomarkup,nocontrol"`
	GenreName  string `json:"genreName" validate:"required,max=100,nomarkup,nocontrol"`
	BookTitle  string `json:"bookTitle" validate:"required,max=200,nomarkup,nocontrol"`
	Summary    string `json:"summary" validate:"omitempty,max=5000,nomarkup,nocontrol"`
	ISBN       string `json:"isbn" validate:"omitempty,isbn"`
}

type bodyField struct {
	name string
	set  func(*CreateRequest, string)
}

// Order matters: the first failing field is the one reported.
var createFields = []bodyField{
	{"familyName", func(r *CreateRequest, v string) { r.FamilyName = v }},
	{"firstName", func(r *CreateRequest, v string) { r.FirstName = v }},
	{"genreName", func(r *CreateRequest, v string) { r.GenreName = v }},
	{"bookTitle", func(r *CreateRequest, v string) { r.BookTitle = v }},
	{"summary", func(r *CreateRequest, v string) { r.Summary = v }},
	{"isbn", func(r *CreateRequest, v string) { r.ISBN = v }},
}

var (
	validate *validator.Validate

	markupPattern = regexp.MustCompile(`(?i)<\s*[/!?]?\s*[a-z]|<!--`)
	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13Pattern = regexp.MustCompile(`^\d{13}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("nomarkup", validateNoMarkup)
	validate.RegisterValidation("nocontrol", validateNoControl)
	validate.RegisterValidation("isbn", validateISBN)
}

func validateNoMarkup(fl validator.FieldLevel) bool {
	return !markupPattern.MatchString(fl.Field().String())
}

// validateNoControl refuses control characters such as NUL. Tab, CR and LF
// are allowed so summaries can span lines.
func validateNoControl(fl validator.FieldLevel) bool {
	return !hasControl(fl.Field().String())
}

func hasControl(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r'
	})
}

func validateISBN(fl validator.FieldLevel) bool {
	isbn := fl.Field().String()
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")

	switch len(isbn) {
	case 10:
		return isbn10Pattern.MatchString(isbn)
	case 13:
		return isbn13Pattern.MatchString(isbn)
	}
	return false
}

// ParseCreateRequest decodes and validates a create body. Each known field must
// be a JSON string token; objects such as {"$ne": ""} are refused before any
// decoding into Go strings happens. Values are trimmed, then checked for
// presence, markup and format. Unknown keys are ignored.
func ParseCreateRequest(body []byte) (CreateRequest, error) {
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return CreateRequest{}, &RejectedError{Field: "body", Reason: ErrInvalidType, Message: "body must be a JSON object"}
	}

	var req CreateRequest
	for _, f := range createFields {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		iter := jsoniter.ParseBytes(json, value)
		switch iter.WhatIsNext() {
		case jsoniter.NilValue:
			continue
		case jsoniter.StringValue:
			s := iter.ReadString()
			if iter.Error != nil {
				return CreateRequest{}, &RejectedError{Field: f.name, Reason: ErrInvalidType}
			}
			f.set(&req, strings.TrimSpace(s))
		default:
			return CreateRequest{}, &RejectedError{Field: f.name, Reason: ErrInvalidType}
		}
	}

	if err := validate.Struct(req); err != nil {
		return CreateRequest{}, rejection(err)
	}
	return req, nil
}

// ValidateGenreName applies the genreName rules to a name that did not come
// through ParseCreateRequest. It returns the trimmed name.
func ValidateGenreName(name string) (string, error) {
	var genre struct {
		GenreName string `json:"genreName" validate:"required,max=100,nomarkup,nocontrol"`
	}
	genre.GenreName = strings.TrimSpace(name)
	if err := validate.Struct(genre); err != nil {
		return "", rejection(err)
	}
	return genre.GenreName, nil
}

func rejection(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &RejectedError{Field: "body", Reason: ErrInvalidInput, Message: "Invalid input"}
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &RejectedError{Field: field, Reason: ErrMissingField}
	case "nomarkup":
		return &RejectedError{Field: field, Reason: ErrInvalidInput,
			Message: fmt.Sprintf("Invalid input: %s must not contain markup", field)}
	case "nocontrol":
		return &RejectedError{Field: field, Reason: ErrInvalidInput,
			Message: fmt.Sprintf("Invalid input: %s must not contain control characters", field)}
	case "max":
		return &RejectedError{Field: field, Reason: ErrInvalidInput,
			Message: fmt.Sprintf("Invalid input: %s must be at most %s characters", field, fe.Param())}
	case "isbn":
		return &RejectedError{Field: field, Reason: ErrInvalidInput,
			Message: fmt.Sprintf("Invalid input: %s must be a valid ISBN (10 or 13 digits)", field)}
	default:
		return &RejectedError{Field: field, Reason: ErrInvalidInput}
	}
}
