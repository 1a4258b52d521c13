package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vns-shanshan/cineverse-api/internal/domain"
	"github.com/vns-shanshan/cineverse-api/internal/repository"
	"github.com/vns-shanshan/cineverse-api/internal/storage"
)

func upload(name string) *storage.PhotoUpload {
	return &storage.PhotoUpload{Filename: name, Data: []byte("jpeg-bytes")}
}

// fakeMovieStore is an in-memory MovieStore. It hands out copies so tests
// cannot mutate stored state through returned pointers.
type fakeMovieStore struct {
	mu            sync.RWMutex
	nextMovieID   uint64
	nextCommentID uint64
	movies        map[uint64]*domain.Movie
}

func newFakeMovieStore() *fakeMovieStore {
	return &fakeMovieStore{movies: make(map[uint64]*domain.Movie)}
}

var _ repository.MovieStore = (*fakeMovieStore)(nil)

func copyMovie(m *domain.Movie) *domain.Movie {
	cp := *m
	cp.Comments = append([]domain.Comment(nil), m.Comments...)
	if m.Runtime != nil {
		rt := *m.Runtime
		cp.Runtime = &rt
	}
	return &cp
}

func (f *fakeMovieStore) FindByID(ctx context.Context, id uint64) (*domain.Movie, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return copyMovie(m), nil
}

func (f *fakeMovieStore) FindByOwner(ctx context.Context, ownerID uint64) ([]*domain.Movie, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*domain.Movie
	for _, m := range f.movies {
		if m.Owner.ID == ownerID {
			out = append(out, copyMovie(m))
		}
	}
	// Deliberately oldest-first: ordering is the service's job.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMovieStore) FindAll(ctx context.Context) ([]*domain.Movie, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*domain.Movie
	for _, m := range f.movies {
		out = append(out, copyMovie(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMovieStore) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.movies[id]
	return ok, nil
}

func (f *fakeMovieStore) Insert(ctx context.Context, m *domain.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMovieID++
	m.ID = f.nextMovieID
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	f.movies[m.ID] = copyMovie(m)
	return nil
}

func (f *fakeMovieStore) Update(ctx context.Context, m *domain.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.movies[m.ID]
	if !ok {
		return repository.ErrMovieNotFound
	}
	// Mirrors the SQL UPDATE: owner and comments are never written.
	cur.Photo = m.Photo
	cur.Title = m.Title
	cur.Genre = m.Genre
	cur.ReleasedDate = m.ReleasedDate
	cur.Runtime = m.Runtime
	cur.Details = m.Details
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeMovieStore) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(f.movies, id)
	return nil
}

func (f *fakeMovieStore) AppendComment(ctx context.Context, movieID uint64, cm *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[movieID]
	if !ok {
		return repository.ErrMovieNotFound
	}
	f.nextCommentID++
	cm.ID = f.nextCommentID
	if cm.CreatedAt.IsZero() {
		cm.CreatedAt = time.Now().UTC()
	}
	m.Comments = append(m.Comments, *cm)
	return nil
}

func (f *fakeMovieStore) FindComment(ctx context.Context, movieID, commentID uint64) (*domain.Comment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.movies[movieID]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	for i := range m.Comments {
		if m.Comments[i].ID == commentID {
			cm := m.Comments[i]
			return &cm, nil
		}
	}
	return nil, repository.ErrCommentNotFound
}

func (f *fakeMovieStore) UpdateCommentBody(ctx context.Context, movieID, commentID uint64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[movieID]
	if !ok {
		return repository.ErrCommentNotFound
	}
	for i := range m.Comments {
		if m.Comments[i].ID == commentID {
			m.Comments[i].Body = body
			return nil
		}
	}
	return repository.ErrCommentNotFound
}

func (f *fakeMovieStore) DeleteComment(ctx context.Context, movieID, commentID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[movieID]
	if !ok {
		return repository.ErrCommentNotFound
	}
	for i := range m.Comments {
		if m.Comments[i].ID == commentID {
			m.Comments = append(m.Comments[:i], m.Comments[i+1:]...)
			return nil
		}
	}
	return repository.ErrCommentNotFound
}

// fakePhotoStore records uploads; fail makes every Store call error.
type fakePhotoStore struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakePhotoStore) Store(ctx context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("bucket unreachable")
	}
	f.calls++
	return fmt.Sprintf("https://cdn.test/movie/%d-%s", f.calls, filename), nil
}

// ----- fixtures -----

var (
	alice = &domain.Identity{ID: 1, Username: "alice"}
	bob   = &domain.Identity{ID: 2, Username: "bob"}
)

func newTestService(t *testing.T) (*MovieService, *fakeMovieStore, *fakePhotoStore) {
	t.Helper()
	store := newFakeMovieStore()
	photos := &fakePhotoStore{}
	return NewMovieService(store, photos, nil), store, photos
}

func validInput() domain.MovieInput {
	return domain.MovieInput{
		Title:        "Arrival",
		Genre:        "Sci-Fi",
		ReleasedDate: "2016-11-11",
		Details:      "Linguist decodes an alien language.",
		Photo:        "https://cdn.test/seed/arrival.jpg",
	}
}

func mustCreate(t *testing.T, svc *MovieService, caller *domain.Identity, in domain.MovieInput) *domain.Movie {
	t.Helper()
	m, err := svc.Create(context.Background(), caller, in, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return m
}

// ----- create -----

func TestCreateSetsOwnerFromCaller(t *testing.T) {
	svc, _, _ := newTestService(t)

	m := mustCreate(t, svc, alice, validInput())
	if m.Owner.ID != alice.ID || m.Owner.Username != "alice" {
		t.Fatalf("owner = %+v, want alice", m.Owner)
	}
	if m.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if m.Photo != "https://cdn.test/seed/arrival.jpg" {
		t.Fatalf("photo = %q", m.Photo)
	}
}

func TestCreateUploadsPhotoBeforePersisting(t *testing.T) {
	svc, _, photos := newTestService(t)

	in := validInput()
	in.Photo = ""
	up := upload("poster.jpg")
	m, err := svc.Create(context.Background(), alice, in, up)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(m.Photo, "https://cdn.test/movie/") {
		t.Fatalf("photo = %q, want uploaded URL", m.Photo)
	}
	if photos.calls != 1 {
		t.Fatalf("photo store calls = %d, want 1", photos.calls)
	}
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), nil, validInput(), nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCreateRejectsUnknownGenre(t *testing.T) {
	svc, store, photos := newTestService(t)

	in := validInput()
	in.Genre = "Musical"
	_, err := svc.Create(context.Background(), alice, in, upload("poster.jpg"))

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if !containsField(verr, "genre") {
		t.Fatalf("fields = %v, want genre", verr.Fields)
	}
	if len(store.movies) != 0 {
		t.Fatal("nothing should be persisted on validation failure")
	}
	if photos.calls != 0 {
		t.Fatal("validation must run before any upload")
	}
}

func TestCreateReportsAllMissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), alice, domain.MovieInput{}, nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, want := range []string{"title", "genre", "releasedDate", "details", "photo"} {
		if !containsField(verr, want) {
			t.Errorf("fields = %v, missing %q", verr.Fields, want)
		}
	}
}

func TestCreateRejectsMalformedReleasedDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := validInput()
	in.ReleasedDate = "November 11th"
	_, err := svc.Create(context.Background(), alice, in, nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || !containsField(verr, "releasedDate") {
		t.Fatalf("err = %v, want ValidationError on releasedDate", err)
	}
}

func TestCreateUploadFailureLeavesNoMovie(t *testing.T) {
	svc, store, photos := newTestService(t)
	photos.fail = true

	in := validInput()
	in.Photo = ""
	_, err := svc.Create(context.Background(), alice, in, upload("poster.jpg"))
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if len(store.movies) != 0 {
		t.Fatal("failed upload must not leave a movie behind")
	}
}

// ----- list -----

func TestListScopesByCaller(t *testing.T) {
	svc, _, _ := newTestService(t)

	first := mustCreate(t, svc, alice, validInput())
	second := mustCreate(t, svc, alice, validInput())
	mustCreate(t, svc, bob, validInput())

	// Guest: everything, newest first.
	all, err := svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("guest list length = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID < all[i].ID {
			t.Fatalf("list not newest-first: %d before %d", all[i-1].ID, all[i].ID)
		}
	}

	// Authenticated: own movies only.
	mine, err := svc.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("owner list length = %d, want 2", len(mine))
	}
	if mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatalf("owner list order = [%d %d], want [%d %d]", mine[0].ID, mine[1].ID, second.ID, first.ID)
	}
}

// ----- update -----

func TestUpdateOwnerImmutable(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	in := validInput()
	in.Title = "Arrival (Director's Cut)"
	got, err := svc.Update(context.Background(), alice, m.ID, in, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Owner.ID != alice.ID {
		t.Fatalf("owner changed to %d", got.Owner.ID)
	}
	if got.Title != "Arrival (Director's Cut)" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	svc, store, photos := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	in := validInput()
	in.Title = "Hijacked"
	_, err := svc.Update(context.Background(), bob, m.ID, in, upload("new.jpg"))
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if photos.calls != 0 {
		t.Fatal("ownership check must run before any upload")
	}
	if store.movies[m.ID].Title != "Arrival" {
		t.Fatal("movie mutated despite forbidden update")
	}
}

func TestUpdateAbsentMovieForbidden(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Update(context.Background(), alice, 99, validInput(), nil); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateWithoutPhotoKeepsStoredPhoto(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	in := validInput()
	in.Photo = ""
	in.Details = "Updated details."
	got, err := svc.Update(context.Background(), alice, m.ID, in, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Photo != m.Photo {
		t.Fatalf("photo = %q, want untouched %q", got.Photo, m.Photo)
	}
	if got.Details != "Updated details." {
		t.Fatalf("details = %q", got.Details)
	}
}

func TestUpdateWithUploadReplacesPhoto(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	in := validInput()
	in.Photo = ""
	got, err := svc.Update(context.Background(), alice, m.ID, in, upload("new-poster.jpg"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Photo == m.Photo || !strings.HasPrefix(got.Photo, "https://cdn.test/movie/") {
		t.Fatalf("photo = %q, want fresh uploaded URL", got.Photo)
	}
}

// ----- delete -----

func TestDeleteLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	if err := svc.Delete(context.Background(), bob, m.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("non-owner delete err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), alice, m.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), m.ID); !errors.Is(err, repository.ErrMovieNotFound) {
		t.Fatalf("get after delete err = %v, want ErrMovieNotFound", err)
	}
	// Second delete of the same id is a 404, not a silent success.
	if err := svc.Delete(context.Background(), alice, m.ID); !errors.Is(err, repository.ErrMovieNotFound) {
		t.Fatalf("second delete err = %v, want ErrMovieNotFound", err)
	}
}

// ----- comments -----

func TestGetReturnsCommentsNewestFirst(t *testing.T) {
	svc, store, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, body := range []string{"first", "second", "third"} {
		cm := &domain.Comment{
			Author:    domain.UserRef{ID: bob.ID, Username: bob.Username},
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendComment(context.Background(), m.ID, cm); err != nil {
			t.Fatalf("AppendComment: %v", err)
		}
	}

	got, err := svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(got.Comments) != len(want) {
		t.Fatalf("comments = %d, want %d", len(got.Comments), len(want))
	}
	for i, body := range want {
		if got.Comments[i].Body != body {
			t.Fatalf("comments[%d] = %q, want %q", i, got.Comments[i].Body, body)
		}
	}
}

func TestAddCommentThenAuthorOnlyRead(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	got, err := svc.AddComment(context.Background(), bob, m.ID, domain.CommentInput{Body: "loved it"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(got.Comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(got.Comments))
	}
	cm := got.Comments[0]
	if cm.Author.ID != bob.ID {
		t.Fatalf("author = %d, want %d", cm.Author.ID, bob.ID)
	}

	// The author reads their own comment; any other authenticated user is
	// rejected even though the full movie is public.
	if _, err := svc.GetComment(context.Background(), bob, m.ID, cm.ID); err != nil {
		t.Fatalf("author GetComment: %v", err)
	}
	if _, err := svc.GetComment(context.Background(), alice, m.ID, cm.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("foreign GetComment err = %v, want ErrForbidden", err)
	}
}

func TestAddCommentValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())

	var verr *domain.ValidationError
	if _, err := svc.AddComment(context.Background(), bob, m.ID, domain.CommentInput{Body: "   "}); !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, err := svc.AddComment(context.Background(), bob, 404, domain.CommentInput{Body: "x"}); !errors.Is(err, repository.ErrMovieNotFound) {
		t.Fatalf("err = %v, want ErrMovieNotFound", err)
	}
}

func TestUpdateCommentAuthorOnlyAndImmutableFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())
	withComment, err := svc.AddComment(context.Background(), bob, m.ID, domain.CommentInput{Body: "original"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	cm := withComment.Comments[0]

	if _, err := svc.UpdateComment(context.Background(), alice, m.ID, cm.ID, domain.CommentInput{Body: "defaced"}); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("foreign update err = %v, want ErrForbidden", err)
	}

	got, err := svc.UpdateComment(context.Background(), bob, m.ID, cm.ID, domain.CommentInput{Body: "edited"})
	if err != nil {
		t.Fatalf("author update: %v", err)
	}
	updated := got.Comments[0]
	if updated.Body != "edited" {
		t.Fatalf("body = %q", updated.Body)
	}
	if updated.Author.ID != cm.Author.ID || !updated.CreatedAt.Equal(cm.CreatedAt) {
		t.Fatal("author/createdAt must not change on edit")
	}
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	m := mustCreate(t, svc, alice, validInput())
	withComment, err := svc.AddComment(context.Background(), bob, m.ID, domain.CommentInput{Body: "bye"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	cm := withComment.Comments[0]

	if err := svc.DeleteComment(context.Background(), alice, m.ID, cm.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("foreign delete err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteComment(context.Background(), bob, m.ID, cm.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	got, err := svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Comments) != 0 {
		t.Fatalf("comments = %d, want 0", len(got.Comments))
	}
	if err := svc.DeleteComment(context.Background(), bob, m.ID, cm.ID); !errors.Is(err, repository.ErrCommentNotFound) {
		t.Fatalf("second delete err = %v, want ErrCommentNotFound", err)
	}
}

// ----- helpers -----

func containsField(verr *domain.ValidationError, field string) bool {
	for _, f := range verr.Fields {
		if f == field {
			return true
		}
	}
	return false
}
