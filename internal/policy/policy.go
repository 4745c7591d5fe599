// Package policy decides who may perform which operation on a snippet.
//
// The entire access-control model of the application lives in this one pure
// function. It deliberately knows nothing about HTTP, tokens, or the
// database — it is given a principal ID (empty string for anonymous
// callers), an operation, and the target record, and answers yes or no.
//
// WHY A PURE FUNCTION AND NOT MIDDLEWARE?
// A permission check buried in routing middleware can only see the request,
// not the loaded target record, so owner checks end up duplicated in
// handlers. Keeping the rule here means the service applies it uniformly,
// and it can be unit-tested with plain function calls — no request
// machinery, no mocks.
package policy

import "github.com/rashed/snippetbin/internal/model"

// Operation enumerates everything a caller can do to snippets.
type Operation int

const (
	OpList Operation = iota
	OpRetrieve
	OpHighlight
	OpCreate
	OpUpdate
	OpPartialUpdate
	OpDestroy
)

// String returns the operation name for log messages.
func (op Operation) String() string {
	switch op {
	case OpList:
		return "list"
	case OpRetrieve:
		return "retrieve"
	case OpHighlight:
		return "highlight"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpPartialUpdate:
		return "partial_update"
	case OpDestroy:
		return "destroy"
	}
	return "unknown"
}

// IsWrite reports whether the operation mutates state.
// List, retrieve, and highlight are reads; everything else is a write.
func (op Operation) IsWrite() bool {
	switch op {
	case OpList, OpRetrieve, OpHighlight:
		return false
	}
	return true
}

// Permits reports whether the principal may perform op on target.
//
// Rules, evaluated in order:
//  1. Reads are always permitted, for anyone — including anonymous callers
//     (principalID == "").
//  2. Create requires an authenticated principal. There is no existing
//     target to check ownership against; the service sets the new record's
//     owner to the principal.
//  3. Update, partial update, and destroy require an authenticated principal
//     who owns the target.
//
// Permits answers only yes/no. The service distinguishes WHY a denial
// happened: an empty principal maps to Unauthenticated (401), a non-owner
// principal to Forbidden (403).
func Permits(principalID string, op Operation, target *model.Snippet) bool {
	if !op.IsWrite() {
		return true
	}

	if principalID == "" {
		return false
	}

	if op == OpCreate {
		return true
	}

	return target != nil && target.OwnerID == principalID
}
