package pathwise_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	pathwise "github.com/pathwise-edu/pathwise"
)

// MockLogger implements pathwise.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

func newQuietLogger() *MockLogger {
	logger := &MockLogger{}
	logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	logger.On("Info", mock.Anything, mock.Anything).Maybe()
	logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	logger.On("Error", mock.Anything, mock.Anything).Maybe()
	return logger
}

// MockIdentity implements pathwise.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

func newMockIdentity(id, email, role string) *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return(id)
	identity.On("Email").Return(email)
	identity.On("Name").Return("Test User")
	identity.On("Role").Return(role)
	return identity
}

func newTestConfig() *pathwise.AppConfig {
	cfg := pathwise.DefaultConfig()
	cfg.Auth.SigningKey = "test-signing-key"
	cfg.Auth.Issuer = "pathwise-test"
	cfg.Auth.Audience = []string{"pathwise-test"}
	return cfg
}

// memoryUserStore is an in-memory UserTracker plus the transactional lookups
// registration needs.
type memoryUserStore struct {
	mu              sync.Mutex
	users           map[string]*pathwise.User
	attemptCalls    int
	successCalls    int
	failOnGet       error
	createdProfiles []*pathwise.StudentProfile
}

func newMemoryUserStore(users ...*pathwise.User) *memoryUserStore {
	store := &memoryUserStore{users: map[string]*pathwise.User{}}
	for _, u := range users {
		store.users[u.Email] = u
	}
	return store
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*pathwise.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOnGet != nil {
		return nil, s.failOnGet
	}

	user, ok := s.users[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return user, nil
}

func (s *memoryUserStore) TrackAttemptedLogin(ctx context.Context, user *pathwise.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attemptCalls++
	user.LoginAttempts++
	now := time.Now()
	user.LoginAttemptAt = &now
	return nil
}

func (s *memoryUserStore) TrackSuccessfulLogin(ctx context.Context, user *pathwise.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successCalls++
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	now := time.Now()
	user.LoggedInAt = &now
	return nil
}

// fakeUsersRepo overrides just the methods registration touches. Anything
// else panics through the embedded nil interface, which is what we want in a
// unit test.
type fakeUsersRepo struct {
	pathwise.Users
	store     *memoryUserStore
	createErr error
}

func (r *fakeUsersRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*pathwise.User, error) {
	return r.store.GetByEmail(ctx, email)
}

func (r *fakeUsersRepo) CreateTx(ctx context.Context, tx bun.IDB, record *pathwise.User, criteria ...repository.InsertCriteria) (*pathwise.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = pathwise.RoleStudent
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[record.Email] = record

	return record, nil
}

type fakeStudentsRepo struct {
	repository.Repository[*pathwise.StudentProfile]
	store     *memoryUserStore
	createErr error
}

func (r *fakeStudentsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *pathwise.StudentProfile, criteria ...repository.InsertCriteria) (*pathwise.StudentProfile, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.createdProfiles = append(r.store.createdProfiles, record)

	return record, nil
}

type fakeUniversitiesRepo struct {
	pathwise.Universities
	active  []*pathwise.University
	listErr error
}

func (r *fakeUniversitiesRepo) ListActive(ctx context.Context) ([]*pathwise.University, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.active, nil
}

type fakeGenericRepo[T any] struct {
	repository.Repository[*T]
	created   []*T
	createErr error
}

func (r *fakeGenericRepo[T]) Create(ctx context.Context, record *T, criteria ...repository.InsertCriteria) (*T, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, record)
	return record, nil
}

// fakeRepoManager satisfies RepositoryManager for handler tests without a
// database. RunInTx runs the callback with a zero transaction; the fakes
// ignore it.
type fakeRepoManager struct {
	pathwise.RepositoryManager
	users        *fakeUsersRepo
	students     *fakeStudentsRepo
	universities *fakeUniversitiesRepo
	applicants   *fakeGenericRepo[pathwise.Applicant]
	consents     *fakeGenericRepo[pathwise.Consent]
}

func newFakeRepoManager(store *memoryUserStore) *fakeRepoManager {
	return &fakeRepoManager{
		users:        &fakeUsersRepo{store: store},
		students:     &fakeStudentsRepo{store: store},
		universities: &fakeUniversitiesRepo{},
		applicants:   &fakeGenericRepo[pathwise.Applicant]{},
		consents:     &fakeGenericRepo[pathwise.Consent]{},
	}
}

func (m *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *fakeRepoManager) Users() pathwise.Users { return m.users }

func (m *fakeRepoManager) Students() repository.Repository[*pathwise.StudentProfile] {
	return m.students
}

func (m *fakeRepoManager) Universities() pathwise.Universities { return m.universities }

func (m *fakeRepoManager) Applicants() repository.Repository[*pathwise.Applicant] {
	return m.applicants
}

func (m *fakeRepoManager) Consents() repository.Repository[*pathwise.Consent] {
	return m.consents
}

func (m *fakeRepoManager) Validate() error { return nil }

func (m *fakeRepoManager) MustValidate() {}

func mustHashPassword(password string) string {
	hash, err := pathwise.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}

func newActiveUser(email, password string, role pathwise.UserRole) *pathwise.User {
	return &pathwise.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		PasswordHash: mustHashPassword(password),
	}
}
