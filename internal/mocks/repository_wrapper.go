package mocks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/store"
)

// MockStore is an in-memory backing store shared by the MockRepositoryWrappers
// it creates, so data written in one request is visible to the next.
// Writes apply immediately; Save only records that it was called.
type MockStore struct {
	mu sync.Mutex

	Users   map[string]domain.User
	Authors map[uuid.UUID]domain.Author
	Books   map[uuid.UUID]domain.Book

	// Err, when set, is returned by every repository operation.
	Err error
	// SaveErr, when set, is returned by Save.
	SaveErr error

	// Wrappers records every unit of work handed out, in order.
	Wrappers []*MockRepositoryWrapper
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		Users:   make(map[string]domain.User),
		Authors: make(map[uuid.UUID]domain.Author),
		Books:   make(map[uuid.UUID]domain.Book),
	}
}

// NewUnitOfWork returns a fresh wrapper over the store.
func (s *MockStore) NewUnitOfWork() store.RepositoryWrapper {
	w := &MockRepositoryWrapper{store: s}
	s.mu.Lock()
	s.Wrappers = append(s.Wrappers, w)
	s.mu.Unlock()
	return w
}

// LastWrapper returns the most recent unit of work, or nil.
func (s *MockStore) LastWrapper() *MockRepositoryWrapper {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Wrappers) == 0 {
		return nil
	}
	return s.Wrappers[len(s.Wrappers)-1]
}

// AddUser stores a user keyed by username.
func (s *MockStore) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Users[u.Username] = u
}

// MockRepositoryWrapper implements store.RepositoryWrapper for testing
type MockRepositoryWrapper struct {
	store *MockStore

	// SaveFn allows test cases to mock the Save behavior
	SaveFn func(ctx context.Context) error

	SaveCalls     int
	RollbackCalls int

	users   *mockUserRepository
	roles   *mockRoleRepository
	authors *mockAuthorRepository
	books   *mockBookRepository
}

var _ store.RepositoryWrapper = (*MockRepositoryWrapper)(nil)

// Users implements store.RepositoryWrapper
func (w *MockRepositoryWrapper) Users() store.UserRepository {
	if w.users == nil {
		w.users = &mockUserRepository{s: w.store}
	}
	return w.users
}

// Roles implements store.RepositoryWrapper
func (w *MockRepositoryWrapper) Roles() store.RoleRepository {
	if w.roles == nil {
		w.roles = &mockRoleRepository{s: w.store}
	}
	return w.roles
}

// Authors implements store.RepositoryWrapper
func (w *MockRepositoryWrapper) Authors() store.AuthorRepository {
	if w.authors == nil {
		w.authors = &mockAuthorRepository{s: w.store}
	}
	return w.authors
}

// Books implements store.RepositoryWrapper
func (w *MockRepositoryWrapper) Books() store.BookRepository {
	if w.books == nil {
		w.books = &mockBookRepository{s: w.store}
	}
	return w.books
}

// Save implements store.RepositoryWrapper
func (w *MockRepositoryWrapper) Save(ctx context.Context) error {
	w.SaveCalls++
	if w.SaveFn != nil {
		return w.SaveFn(ctx)
	}
	return w.store.SaveErr
}

// Rollback implements store.RepositoryWrapper
func (w *MockRepositoryWrapper) Rollback() error {
	w.RollbackCalls++
	return nil
}

type mockUserRepository struct{ s *MockStore }

func (r *mockUserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.Users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *mockUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.Users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

func (r *mockUserRepository) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.Users[user.Username]; !ok {
		return store.ErrUserNotFound
	}
	r.s.Users[user.Username] = *user
	return nil
}

type mockRoleRepository struct{ s *MockStore }

func (r *mockRoleRepository) GetByName(_ context.Context, name string) (*domain.Role, error) {
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	switch name {
	case domain.RoleAdministrator, domain.RoleUser:
		return &domain.Role{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), Name: name}, nil
	default:
		return nil, store.ErrRoleNotFound
	}
}

func (r *mockRoleRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.Users {
		if u.ID == userID {
			return slices.Clone(u.Roles), nil
		}
	}
	return []domain.Role{}, nil
}

type mockAuthorRepository struct{ s *MockStore }

func (r *mockAuthorRepository) List(_ context.Context, page store.Page) ([]domain.Author, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, 0, r.s.Err
	}
	all := make([]domain.Author, 0, len(r.s.Authors))
	for _, a := range r.s.Authors {
		all = append(all, a)
	}
	slices.SortFunc(all, func(a, b domain.Author) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	page = page.Normalize()
	start := min(page.Offset(), len(all))
	end := min(start+page.Size, len(all))
	return all[start:end], len(all), nil
}

func (r *mockAuthorRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Author, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	a, ok := r.s.Authors[id]
	if !ok {
		return nil, store.ErrAuthorNotFound
	}
	return &a, nil
}

func (r *mockAuthorRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	_, ok := r.s.Authors[id]
	return ok, nil
}

func (r *mockAuthorRepository) Create(_ context.Context, author *domain.Author) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.Authors[author.ID]; ok {
		return domain.NewPersistenceError(domain.ReasonConflict, "the resource already exists", nil)
	}
	r.s.Authors[author.ID] = *author
	return nil
}

func (r *mockAuthorRepository) Update(_ context.Context, author *domain.Author) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.Authors[author.ID]; !ok {
		return store.ErrAuthorNotFound
	}
	r.s.Authors[author.ID] = *author
	return nil
}

func (r *mockAuthorRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.Authors[id]; !ok {
		return store.ErrAuthorNotFound
	}
	delete(r.s.Authors, id)
	for bid, b := range r.s.Books {
		if b.AuthorID == id {
			delete(r.s.Books, bid)
		}
	}
	return nil
}

type mockBookRepository struct{ s *MockStore }

func (r *mockBookRepository) ListByAuthor(_ context.Context, authorID uuid.UUID) ([]domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	books := []domain.Book{}
	for _, b := range r.s.Books {
		if b.AuthorID == authorID {
			books = append(books, b)
		}
	}
	slices.SortFunc(books, func(a, b domain.Book) int { return strings.Compare(a.Title, b.Title) })
	return books, nil
}

func (r *mockBookRepository) GetByID(_ context.Context, authorID, bookID uuid.UUID) (*domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	b, ok := r.s.Books[bookID]
	if !ok || b.AuthorID != authorID {
		return nil, store.ErrBookNotFound
	}
	return &b, nil
}

func (r *mockBookRepository) Create(_ context.Context, book *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.Authors[book.AuthorID]; !ok {
		return domain.NewPersistenceError(domain.ReasonConflict, "a related resource does not exist", nil)
	}
	r.s.Books[book.ID] = *book
	return nil
}

func (r *mockBookRepository) Update(_ context.Context, book *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	existing, ok := r.s.Books[book.ID]
	if !ok || existing.AuthorID != book.AuthorID {
		return store.ErrBookNotFound
	}
	r.s.Books[book.ID] = *book
	return nil
}

func (r *mockBookRepository) Delete(_ context.Context, authorID, bookID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	b, ok := r.s.Books[bookID]
	if !ok || b.AuthorID != authorID {
		return store.ErrBookNotFound
	}
	delete(r.s.Books, bookID)
	return nil
}
