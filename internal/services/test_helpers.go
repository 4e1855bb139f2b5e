package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
	"github.com/Mishael-2584/odel-portal/internal/infrastructure/auth"
	"github.com/Mishael-2584/odel-portal/internal/mocks"
)

// fakeMagicCodeStore is an in-memory MagicCodeRepository with the same
// concurrency semantics as the database-backed one: ConsumeByID flips
// is_used under a lock, so at most one caller wins.
type fakeMagicCodeStore struct {
	mu     sync.Mutex
	nextID uint
	codes  []*domain.MagicCode
}

func newFakeMagicCodeStore() *fakeMagicCodeStore {
	return &fakeMagicCodeStore{nextID: 1}
}

func (f *fakeMagicCodeStore) Create(_ context.Context, code *domain.MagicCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code.ID = f.nextID
	code.CreatedAt = time.Now()
	f.nextID++
	cp := *code
	f.codes = append(f.codes, &cp)
	return nil
}

func (f *fakeMagicCodeStore) FindLatestActive(_ context.Context, email string) (*domain.MagicCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	candidates := make([]*domain.MagicCode, 0, len(f.codes))
	for _, c := range f.codes {
		if c.Email == email && !c.IsUsed {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrCodeInvalid
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	cp := *candidates[0]
	return &cp, nil
}

func (f *fakeMagicCodeStore) IncrementAttempts(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.ID == id {
			c.AttemptedCount++
		}
	}
	return nil
}

func (f *fakeMagicCodeStore) ConsumeByID(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.ID == id && !c.IsUsed {
			c.IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMagicCodeStore) DeleteExpired(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.codes[:0]
	for _, c := range f.codes {
		if c.ExpiresAt.After(time.Now()) {
			kept = append(kept, c)
		}
	}
	f.codes = kept
	return nil
}

// latest returns the most recent stored code row for email, used or not.
func (f *fakeMagicCodeStore) latest(email string) *domain.MagicCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *domain.MagicCode
	for _, c := range f.codes {
		if c.Email == email {
			found = c
		}
	}
	if found == nil {
		return nil
	}
	cp := *found
	return &cp
}

var _ domain.MagicCodeRepository = (*fakeMagicCodeStore)(nil)

// fakeStudentSessionStore is an in-memory StudentSessionRepository.
type fakeStudentSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.StudentSession
}

func newFakeStudentSessionStore() *fakeStudentSessionStore {
	return &fakeStudentSessionStore{sessions: make(map[string]*domain.StudentSession)}
}

func (f *fakeStudentSessionStore) Create(_ context.Context, s *domain.StudentSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStudentSessionStore) FindByID(_ context.Context, sessionID string) (*domain.StudentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !s.IsActive {
		return nil, domain.ErrSessionRevoked
	}
	if s.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudentSessionStore) Deactivate(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeStudentSessionStore) DeactivateByEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Email == email {
			s.IsActive = false
		}
	}
	return nil
}

var _ domain.StudentSessionRepository = (*fakeStudentSessionStore)(nil)

// authServiceFixture bundles the service under test with its collaborators.
type authServiceFixture struct {
	svc          domain.AuthService
	moodle       *mocks.MockMoodleClient
	codeStore    *fakeMagicCodeStore
	sessionStore *fakeStudentSessionStore
	adminSess    *mocks.MockAdminSessionRepository
	adminRepo    *mocks.MockAdminRepository
	passwordSvc  *mocks.MockPasswordService
	mailer       *mocks.MockMailerService
}

func createAuthServiceForTest(t *testing.T) *authServiceFixture {
	t.Helper()

	f := &authServiceFixture{
		moodle:       mocks.NewMockMoodleClient(),
		codeStore:    newFakeMagicCodeStore(),
		sessionStore: newFakeStudentSessionStore(),
		adminSess:    mocks.NewMockAdminSessionRepository(),
		adminRepo:    mocks.NewMockAdminRepository(),
		passwordSvc:  mocks.NewMockPasswordService(),
		mailer:       mocks.NewMockMailerService(),
	}

	// Lookup by email resolves the test student by default.
	f.moodle.GetUserByEmailFunc = func(_ context.Context, email string) (*domain.MoodleUser, error) {
		if email == "student@ueab.ac.ke" {
			return &domain.MoodleUser{ID: 321, Username: "jkorir", FullName: "Japheth Korir", Email: email}, nil
		}
		return nil, nil
	}
	f.moodle.GetUserByIDFunc = func(_ context.Context, userID int) (*domain.MoodleUser, error) {
		if userID == 321 {
			return &domain.MoodleUser{ID: 321, Username: "jkorir", FullName: "Japheth Korir"}, nil
		}
		return nil, nil
	}

	f.svc = NewAuthService(
		f.moodle,
		f.codeStore,
		f.sessionStore,
		f.adminSess,
		f.adminRepo,
		f.passwordSvc,
		auth.NewJWTService("test-secret", "odel-portal", 24*time.Hour),
		f.mailer,
		AuthConfig{
			CodeLength:  6,
			CodeTTL:     10 * time.Minute,
			MaxAttempts: 5,
			SessionTTL:  24 * time.Hour,
		},
		zerolog.Nop(),
	)
	return f
}
