// Package serializer maps internal records to and from their external JSON
// representations.
//
// The mapping is explicit and static: each resource type is a plain struct
// whose fields spell out exactly what crosses the boundary and in which
// direction. No reflection-driven field lists — what you read here is the
// entire wire contract.
//
// Direction of each field:
//
//	Snippet: url, id, highlight, owner        → output only (derived)
//	         title, code, linenos, language,
//	         style                            → both directions
//	User:    url, id, snippets                → output only (derived)
//	         username                         → both directions
//	         password                         → input only, consumed at
//	                                            registration, never echoed
//
// Decoding validates field presence, JSON types, and enum membership before
// anything reaches the service, and reports every problem in one
// ValidationError.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/highlight"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/service"
)

// SnippetResource is the external representation of a snippet. The owner is
// exposed only as a username — the raw owner id stays internal.
type SnippetResource struct {
	URL         string `json:"url"`
	ID          string `json:"id"`
	Highlight   string `json:"highlight"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	LineNumbers bool   `json:"linenos"`
	Language    string `json:"language"`
	Style       string `json:"style"`
	Owner       string `json:"owner"`
}

// UserResource is the external representation of a user. Snippets is the
// list of hyperlinks to the user's snippets, derived by querying the store.
// There is no password field: the credential is never serialized.
type UserResource struct {
	URL      string   `json:"url"`
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Snippets []string `json:"snippets"`
}

// SnippetURL returns the canonical path of a snippet resource.
func SnippetURL(id string) string {
	return "/snippets/" + id
}

// HighlightURL returns the path of a snippet's highlight rendering.
func HighlightURL(id string) string {
	return SnippetURL(id) + "/highlight"
}

// UserURL returns the canonical path of a user resource.
func UserURL(id string) string {
	return "/users/" + id
}

// NewSnippet maps a snippet record to its external representation.
func NewSnippet(s *model.Snippet) SnippetResource {
	return SnippetResource{
		URL:         SnippetURL(s.ID),
		ID:          s.ID,
		Highlight:   HighlightURL(s.ID),
		Title:       s.Title,
		Code:        s.Code,
		LineNumbers: s.LineNumbers,
		Language:    s.Language,
		Style:       s.Style,
		Owner:       s.OwnerUsername,
	}
}

// NewSnippetList maps a slice of records, preserving order.
func NewSnippetList(snippets []model.Snippet) []SnippetResource {
	out := make([]SnippetResource, 0, len(snippets))
	for i := range snippets {
		out = append(out, NewSnippet(&snippets[i]))
	}
	return out
}

// NewUser maps a user and their snippet ids to the external representation.
func NewUser(u *service.UserWithSnippets) UserResource {
	links := make([]string, 0, len(u.SnippetIDs))
	for _, id := range u.SnippetIDs {
		links = append(links, SnippetURL(id))
	}
	return UserResource{
		URL:      UserURL(u.User.ID),
		ID:       u.User.ID,
		Username: u.User.Username,
		Snippets: links,
	}
}

// NewUserList maps a slice of users, preserving order.
func NewUserList(users []service.UserWithSnippets) []UserResource {
	out := make([]UserResource, 0, len(users))
	for i := range users {
		out = append(out, NewUser(&users[i]))
	}
	return out
}

// snippetPayload is the writable subset of a snippet request body. Pointer
// fields distinguish "absent" from "zero value". There is deliberately no
// owner or id field: payloads carrying them are accepted but those values
// have nowhere to land, so owner reassignment is structurally impossible.
type snippetPayload struct {
	Title       *string `json:"title"`
	Code        *string `json:"code"`
	Language    *string `json:"language"`
	Style       *string `json:"style"`
	LineNumbers *bool   `json:"linenos"`
}

// DecodeSnippetInput parses and validates a snippet payload.
//
// partial=false (POST, PUT): every mutable field must be present — title,
// code, language, style, and linenos. partial=true (PATCH): any subset.
// Enum membership for language/style is checked here, at the boundary, so
// invalid values are rejected before the service ever sees them (the service
// checks again — defence in depth, not trust).
func DecodeSnippetInput(r io.Reader, partial bool) (service.SnippetFields, error) {
	var payload snippetPayload
	if err := decodeJSON(r, &payload); err != nil {
		return service.SnippetFields{}, err
	}

	var problems []apperror.FieldError
	require := func(field string, present bool) {
		if !partial && !present {
			problems = append(problems, apperror.FieldError{
				Field:   field,
				Message: field + " is required",
			})
		}
	}

	require("title", payload.Title != nil)
	require("code", payload.Code != nil)
	require("language", payload.Language != nil)
	require("style", payload.Style != nil)
	require("linenos", payload.LineNumbers != nil)

	if payload.Code != nil && *payload.Code == "" {
		problems = append(problems, apperror.FieldError{
			Field: "code", Message: "code must not be empty",
		})
	}
	if payload.Language != nil && !highlight.SupportedLanguage(*payload.Language) {
		problems = append(problems, apperror.FieldError{
			Field:   "language",
			Message: fmt.Sprintf("%q is not a supported language", *payload.Language),
		})
	}
	if payload.Style != nil && !highlight.SupportedStyle(*payload.Style) {
		problems = append(problems, apperror.FieldError{
			Field:   "style",
			Message: fmt.Sprintf("%q is not a supported style", *payload.Style),
		})
	}

	if len(problems) > 0 {
		return service.SnippetFields{}, apperror.ValidationFailedFields(problems)
	}

	return service.SnippetFields{
		Title:       payload.Title,
		Code:        payload.Code,
		Language:    payload.Language,
		Style:       payload.Style,
		LineNumbers: payload.LineNumbers,
	}, nil
}

// DecodeSnippetCreate parses a creation payload. Unlike PUT, fields with
// server-side defaults (title, style, linenos) may be omitted; only code and
// language are mandatory.
func DecodeSnippetCreate(r io.Reader) (service.SnippetFields, error) {
	var payload snippetPayload
	if err := decodeJSON(r, &payload); err != nil {
		return service.SnippetFields{}, err
	}

	var problems []apperror.FieldError

	if payload.Code == nil || *payload.Code == "" {
		problems = append(problems, apperror.FieldError{
			Field: "code", Message: "code is required",
		})
	}
	switch {
	case payload.Language == nil:
		problems = append(problems, apperror.FieldError{
			Field: "language", Message: "language is required",
		})
	case !highlight.SupportedLanguage(*payload.Language):
		problems = append(problems, apperror.FieldError{
			Field:   "language",
			Message: fmt.Sprintf("%q is not a supported language", *payload.Language),
		})
	}
	if payload.Style != nil && !highlight.SupportedStyle(*payload.Style) {
		problems = append(problems, apperror.FieldError{
			Field:   "style",
			Message: fmt.Sprintf("%q is not a supported style", *payload.Style),
		})
	}

	if len(problems) > 0 {
		return service.SnippetFields{}, apperror.ValidationFailedFields(problems)
	}

	return service.SnippetFields{
		Title:       payload.Title,
		Code:        payload.Code,
		Language:    payload.Language,
		Style:       payload.Style,
		LineNumbers: payload.LineNumbers,
	}, nil
}

// userPayload is the writable subset of a registration body.
type userPayload struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// DecodeUserInput parses a registration payload. Shape validation only —
// username rules and password strength are the service's call.
func DecodeUserInput(r io.Reader) (service.UserFields, error) {
	var payload userPayload
	if err := decodeJSON(r, &payload); err != nil {
		return service.UserFields{}, err
	}
	return service.UserFields{
		Username: payload.Username,
		Password: payload.Password,
	}, nil
}

// decodeJSON decodes a single JSON value, translating type mismatches into
// per-field validation errors instead of opaque 400s.
func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return apperror.ValidationFailed(field,
				fmt.Sprintf("%s must be of type %s", field, typeErr.Type))
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
