// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → policy gate, validation, orchestration
//	Repository (data layer)  → reads/writes the database
//
// The snippet service is a stateless orchestrator: it holds no mutable state
// of its own, so it needs no locking and can serve any number of concurrent
// requests. Every operation consults the access policy first — a denial
// short-circuits before any store access — then performs at most one store
// call plus at most one renderer call. All shared-resource coordination
// lives at the store boundary.
//
// DEPENDENCY INJECTION:
// SnippetService takes repository interfaces and the Renderer interface, not
// concrete types. Tests inject in-memory mocks; main injects SQLite and the
// cached chroma renderer. The service imports neither.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/highlight"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/policy"
	"github.com/rashed/snippetbin/internal/repository"
)

// Validation limits.
const (
	MaxTitleLength = 100
	MaxCodeLength  = 100000 // ~100KB of code
	MaxListLimit   = 500
)

// SnippetFields carries the mutable snippet fields from a decoded request.
//
// WHY POINTERS?
// A nil pointer means "the client did not send this field", which is
// different from sending the zero value. Full updates require every field
// present; partial updates change only the non-nil ones. An owner field in
// the payload simply has nowhere to go — there is no Owner member here, so
// owner reassignment is unrepresentable.
type SnippetFields struct {
	Title       *string
	Code        *string
	Language    *string
	Style       *string
	LineNumbers *bool
}

// SnippetService handles the snippet lifecycle: list, create, retrieve,
// update, partial update, destroy, and highlight.
type SnippetService struct {
	snippets repository.SnippetRepository
	users    repository.UserRepository
	renderer highlight.Renderer
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService with all dependencies injected.
func NewSnippetService(
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	renderer highlight.Renderer,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		users:    users,
		renderer: renderer,
		logger:   logger,
	}
}

// denied maps a policy denial to the right domain error: no principal at all
// is Unauthenticated (the adapter answers with a challenge), a principal who
// isn't the owner is Forbidden (a plain denial).
func denied(principalID string) error {
	if principalID == "" {
		return apperror.Unauthenticated("authentication required")
	}
	return apperror.Forbidden("you do not own this snippet")
}

// List returns snippets in the store's natural order (insertion order),
// unfiltered — reads are open to everyone, so no principal is consulted.
// limit <= 0 returns everything; positive limits are clamped.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	// Reads are principal-independent; gate with the anonymous principal,
	// which is the most restrictive case.
	if !policy.Permits("", policy.OpList, nil) {
		return nil, denied("")
	}

	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.snippets.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// Create validates the fields and saves a new snippet owned by the
// requesting principal.
//
// The owner is set here, exactly once, from the principal — never from the
// payload. We resolve the principal's user record first: a syntactically
// valid token whose subject no longer exists must not create an orphaned
// record, and we need the username for the serialized representation anyway.
func (s *SnippetService) Create(ctx context.Context, principalID string, fields SnippetFields) (*model.Snippet, error) {
	if !policy.Permits(principalID, policy.OpCreate, nil) {
		return nil, denied(principalID)
	}

	owner, err := s.users.GetByID(ctx, principalID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthenticated("unknown principal")
		}
		return nil, fmt.Errorf("resolving principal %s: %w", principalID, err)
	}

	snippet := &model.Snippet{
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
		Style:         highlight.DefaultStyle,
	}
	if err := applyFields(snippet, fields, false); err != nil {
		return nil, err
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("owner", owner.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("owner", owner.Username),
		slog.String("language", snippet.Language),
	)

	return snippet, nil
}

// Get retrieves a snippet by id. Returns apperror.ErrNotFound if absent.
func (s *SnippetService) Get(ctx context.Context, id string) (*model.Snippet, error) {
	if !policy.Permits("", policy.OpRetrieve, nil) {
		return nil, denied("")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet id is required")
	}

	return s.snippets.GetByID(ctx, id)
}

// Update replaces all mutable fields of a snippet. The serializer enforces
// that every mutable field is present; this method additionally requires it,
// so a caller that skips the serializer gets the same contract.
func (s *SnippetService) Update(ctx context.Context, principalID, id string, fields SnippetFields) (*model.Snippet, error) {
	return s.update(ctx, principalID, id, fields, policy.OpUpdate)
}

// PartialUpdate changes only the fields present in the payload, leaving the
// rest untouched.
func (s *SnippetService) PartialUpdate(ctx context.Context, principalID, id string, fields SnippetFields) (*model.Snippet, error) {
	return s.update(ctx, principalID, id, fields, policy.OpPartialUpdate)
}

func (s *SnippetService) update(ctx context.Context, principalID, id string, fields SnippetFields, op policy.Operation) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet id is required")
	}

	// Load first: a missing target is NotFound for everyone, owner or not.
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.Permits(principalID, op, snippet) {
		return nil, denied(principalID)
	}

	partial := op == policy.OpPartialUpdate
	if err := applyFields(snippet, fields, partial); err != nil {
		return nil, err
	}

	if err := s.snippets.Update(ctx, snippet); err != nil {
		if isNotFound(err) {
			// Deleted between our read and write — report it as absent.
			return nil, err
		}
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.String("operation", op.String()),
	)

	return snippet, nil
}

// Destroy permanently deletes a snippet. Only the owner may do this; a
// second call for the same id fails with NotFound.
func (s *SnippetService) Destroy(ctx context.Context, principalID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet id is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !policy.Permits(principalID, policy.OpDestroy, snippet) {
		return denied(principalID)
	}

	if err := s.snippets.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// Highlight renders the snippet's code as a complete HTML document.
//
// Reads are open to everyone. The renderer is pure, so repeated calls with
// an unchanged snippet return byte-identical markup — and the cached
// renderer wired in by the server exploits exactly that.
func (s *SnippetService) Highlight(ctx context.Context, id string) ([]byte, error) {
	if !policy.Permits("", policy.OpHighlight, nil) {
		return nil, denied("")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet id is required")
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	markup, err := s.renderer.Render(snippet.Code, snippet.Language, snippet.Style, snippet.LineNumbers)
	if err != nil {
		// Stored values passed validation at write time, so a renderer
		// rejection means the whitelists drifted — an internal fault.
		s.logger.Error("renderer rejected stored snippet",
			slog.String("id", snippet.ID),
			slog.String("language", snippet.Language),
			slog.String("style", snippet.Style),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return markup, nil
}

// applyFields validates fields and copies them onto the snippet.
//
// partial=false (create, full update): every mutable field must be present.
// partial=true (partial update): nil fields are left unchanged.
//
// For create, the caller pre-fills defaults (blank title, "friendly" style,
// line numbers off) so "missing" only rejects fields without defaults —
// matching what full update demands for the rest.
func applyFields(snippet *model.Snippet, fields SnippetFields, partial bool) error {
	var problems []apperror.FieldError

	addProblem := func(field, message string) {
		problems = append(problems, apperror.FieldError{Field: field, Message: message})
	}

	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if len(title) > MaxTitleLength {
			addProblem("title", fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		} else {
			snippet.Title = title
		}
	}

	if fields.Code == nil {
		if !partial {
			addProblem("code", "code is required")
		}
	} else if *fields.Code == "" {
		addProblem("code", "code must not be empty")
	} else if len(*fields.Code) > MaxCodeLength {
		addProblem("code", fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	} else {
		snippet.Code = *fields.Code
	}

	if fields.Language == nil {
		if !partial {
			addProblem("language", "language is required")
		}
	} else if !highlight.SupportedLanguage(*fields.Language) {
		addProblem("language", fmt.Sprintf("unsupported language %q", *fields.Language))
	} else {
		snippet.Language = *fields.Language
	}

	if fields.Style != nil {
		if !highlight.SupportedStyle(*fields.Style) {
			addProblem("style", fmt.Sprintf("unsupported style %q", *fields.Style))
		} else {
			snippet.Style = *fields.Style
		}
	}

	if fields.LineNumbers != nil {
		snippet.LineNumbers = *fields.LineNumbers
	}

	if len(problems) > 0 {
		return apperror.ValidationFailedFields(problems)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
