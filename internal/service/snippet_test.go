package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/rashed/snippetbin/internal/apperror"
	"github.com/rashed/snippetbin/internal/highlight"
	"github.com/rashed/snippetbin/internal/model"
	"github.com/rashed/snippetbin/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// Hand-written in-memory fakes implementing the repository interfaces. The
// service doesn't know or care which implementation it gets — that's the
// point of programming to the interface. The mutex matters: the concurrent
// create test drives these from multiple goroutines, just like the real
// store is driven by concurrent requests.

type mockSnippetRepo struct {
	mu       sync.Mutex
	snippets map[string]*model.Snippet
	nextID   int
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	snippet.ID = fmt.Sprintf("snip-%d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Snippet, 0, len(m.snippets))
	// Insertion order: ids are snip-1, snip-2, ... so walk by counter.
	for i := 1; i <= m.nextID; i++ {
		if s, ok := m.snippets[fmt.Sprintf("snip-%d", i)]; ok {
			result = append(result, *s)
		}
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []model.Snippet{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.snippets[snippet.ID]
	if !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	// Mirror the real store: the owner column is not in the UPDATE's SET
	// list, so whatever the caller put in the struct cannot change it.
	stored.OwnerID = existing.OwnerID
	stored.OwnerUsername = existing.OwnerUsername
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockSnippetRepo) ListIDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for i := 1; i <= m.nextID; i++ {
		id := fmt.Sprintf("snip-%d", i)
		if s, ok := m.snippets[id]; ok && s.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo(users ...*model.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.ValidationFailed("username",
				fmt.Sprintf("username %q is already taken", user.Username))
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) List(_ context.Context, _ repository.ListOptions) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

var (
	alice = &model.User{ID: "user-alice", Username: "alice"}
	bob   = &model.User{ID: "user-bob", Username: "bob"}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestService wires a SnippetService with in-memory repos, the real
// chroma renderer (pure, fast enough for tests), and alice/bob registered.
func newTestService(t *testing.T) (*SnippetService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockSnippetRepo()
	users := newMockUserRepo(alice, bob)
	svc := NewSnippetService(repo, users, highlight.New(), testLogger())
	return svc, repo
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func validFields() SnippetFields {
	return SnippetFields{
		Title:       strptr("t"),
		Code:        strptr("print(1)"),
		Language:    strptr("python"),
		Style:       strptr("friendly"),
		LineNumbers: boolptr(true),
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validFields())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() did not assign an id")
	}
	if created.OwnerID != alice.ID || created.OwnerUsername != "alice" {
		t.Errorf("Create() owner = %s/%s, want alice", created.OwnerID, created.OwnerUsername)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "t" || got.Code != "print(1)" || got.Language != "python" ||
		got.Style != "friendly" || !got.LineNumbers {
		t.Errorf("Get() = %+v, fields don't round-trip", got)
	}
}

func TestCreate_AnonymousUnauthenticated(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Create(context.Background(), "", validFields())
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Create(anonymous) error = %v, want ErrUnauthenticated", err)
	}
	if len(repo.snippets) != 0 {
		t.Error("Create(anonymous) must not create a record")
	}
}

func TestCreate_UnknownPrincipalUnauthenticated(t *testing.T) {
	svc, _ := newTestService(t)

	// A well-formed token whose subject was never registered.
	_, err := svc.Create(context.Background(), "user-ghost", validFields())
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Create(unknown principal) error = %v, want ErrUnauthenticated", err)
	}
}

func TestCreate_BogusStyleRejected(t *testing.T) {
	svc, repo := newTestService(t)

	fields := validFields()
	fields.Style = strptr("bogus")

	_, err := svc.Create(context.Background(), alice.ID, fields)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create(style=bogus) error = %v, want ErrValidation", err)
	}
	if len(repo.snippets) != 0 {
		t.Error("a rejected create must not leave a record behind")
	}
}

func TestCreate_DefaultStyle(t *testing.T) {
	svc, _ := newTestService(t)

	fields := validFields()
	fields.Style = nil
	fields.Title = nil
	fields.LineNumbers = nil

	created, err := svc.Create(context.Background(), alice.ID, fields)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Style != highlight.DefaultStyle {
		t.Errorf("Create() style = %q, want default %q", created.Style, highlight.DefaultStyle)
	}
	if created.Title != "" || created.LineNumbers {
		t.Errorf("Create() defaults wrong: title=%q linenos=%v", created.Title, created.LineNumbers)
	}
}

// =========================================================================
// OWNERSHIP
// =========================================================================

func TestUpdate_NonOwnerForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice.ID, validFields())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Update(ctx, bob.ID, created.ID, validFields()); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update by non-owner error = %v, want ErrForbidden", err)
	}
	if _, err := svc.PartialUpdate(ctx, bob.ID, created.ID, SnippetFields{Title: strptr("x")}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("PartialUpdate by non-owner error = %v, want ErrForbidden", err)
	}
	if err := svc.Destroy(ctx, bob.ID, created.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Destroy by non-owner error = %v, want ErrForbidden", err)
	}

	// The record must be untouched.
	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.OwnerID != alice.ID {
		t.Errorf("owner changed to %s after denied writes", got.OwnerID)
	}
}

func TestUpdate_AnonymousUnauthenticated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice.ID, validFields())

	if _, err := svc.Update(ctx, "", created.ID, validFields()); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Update anonymous error = %v, want ErrUnauthenticated", err)
	}
	if err := svc.Destroy(ctx, "", created.ID); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Destroy anonymous error = %v, want ErrUnauthenticated", err)
	}
}

func TestUpdate_OwnerImmutable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice.ID, validFields())

	// SnippetFields has no owner member — a payload's owner value has
	// nowhere to land. This checks the other half: the update path never
	// changes the stored owner either.
	fields := validFields()
	fields.Title = strptr("renamed")
	updated, err := svc.Update(ctx, alice.ID, created.ID, fields)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.OwnerID != alice.ID || updated.OwnerUsername != "alice" {
		t.Errorf("Update() owner = %s/%s, want alice", updated.OwnerID, updated.OwnerUsername)
	}
	if updated.Title != "renamed" {
		t.Errorf("Update() title = %q, want renamed", updated.Title)
	}
}

func TestPartialUpdate_LeavesUnspecifiedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice.ID, validFields())

	updated, err := svc.PartialUpdate(ctx, alice.ID, created.ID, SnippetFields{Language: strptr("go")})
	if err != nil {
		t.Fatalf("PartialUpdate() error = %v", err)
	}
	if updated.Language != "go" {
		t.Errorf("PartialUpdate() language = %q, want go", updated.Language)
	}
	if updated.Code != "print(1)" || updated.Title != "t" || updated.Style != "friendly" || !updated.LineNumbers {
		t.Errorf("PartialUpdate() touched unspecified fields: %+v", updated)
	}
}

// =========================================================================
// READS
// =========================================================================

func TestReads_PrincipalIndependent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice.ID, validFields())

	// Get, List, and Highlight take no principal at all — anonymous and
	// authenticated callers hit the identical code path. Verify they all
	// succeed on another user's snippet.
	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Errorf("Get() error = %v", err)
	}
	list, err := svc.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d snippets, want 1", len(list))
	}
	if _, err := svc.Highlight(ctx, created.ID); err != nil {
		t.Errorf("Highlight() error = %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// HIGHLIGHT
// =========================================================================

func TestHighlight_RenderedOutput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice.ID, validFields())

	first, err := svc.Highlight(ctx, created.ID)
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if len(first) == 0 {
		t.Fatal("Highlight() returned empty markup")
	}

	second, err := svc.Highlight(ctx, created.ID)
	if err != nil {
		t.Fatalf("Highlight() second call error = %v", err)
	}
	if string(first) != string(second) {
		t.Error("Highlight() must be byte-identical across calls with unchanged input")
	}
}

func TestHighlight_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Highlight(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Highlight(missing) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DESTROY
// =========================================================================

func TestDestroy_ThenEverythingNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, alice.ID, validFields())

	if err := svc.Destroy(ctx, alice.ID, created.ID); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get after destroy error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Update(ctx, alice.ID, created.ID, validFields()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update after destroy error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Highlight(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Highlight after destroy error = %v, want ErrNotFound", err)
	}
	if err := svc.Destroy(ctx, alice.ID, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Destroy error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CONCURRENCY
// =========================================================================

func TestCreate_ConcurrentOwnersNeverCross(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const perUser = 20
	var wg sync.WaitGroup

	type result struct {
		principal string
		snippet   *model.Snippet
		err       error
	}
	results := make(chan result, perUser*2)

	for _, principal := range []string{alice.ID, bob.ID} {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(p string) {
				defer wg.Done()
				s, err := svc.Create(ctx, p, validFields())
				results <- result{principal: p, snippet: s, err: err}
			}(principal)
		}
	}

	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			t.Fatalf("concurrent Create() error = %v", r.err)
		}
		if r.snippet.OwnerID != r.principal {
			t.Errorf("snippet %s owned by %s, created by %s — ownership crossed",
				r.snippet.ID, r.snippet.OwnerID, r.principal)
		}
	}
}
