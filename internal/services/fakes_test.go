package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory stand-in for the database and the identity provider
type fakeStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users               map[string]models.User
	studentProfiles     map[string]models.StudentProfile
	contributorProfiles map[string]models.ContributorProfile
	content             map[string]models.ContentItem
	seq                 int

	identities map[string]models.Identity
	passwords  map[string]string
	tokens     map[string]string
	codes      map[string]string

	// injected failures
	getUserErr       error
	getUserFailures  int
	createUserErr    error
	createProfileErr error
	createIdentErr   error
	setPasswordErr   error

	getUserCalls      int
	createUserCalls   int
	transitionCalls   int
	deletedUsers      []string
	deletedIdentities []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:               map[string]models.User{},
		studentProfiles:     map[string]models.StudentProfile{},
		contributorProfiles: map[string]models.ContributorProfile{},
		content:             map[string]models.ContentItem{},
		identities:          map[string]models.Identity{},
		passwords:           map[string]string{},
		tokens:              map[string]string{},
		codes:               map[string]string{},
	}
}

func contentKey(t models.ContentType, id string) string {
	return string(t) + "/" + id
}

func (s *fakeStore) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *fakeStore) addIdentity(id, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id] = models.Identity{ID: id, Name: id, Email: email, DisplayName: email}
	s.passwords[id] = password
}

func (s *fakeStore) addContent(item models.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Date(2026, 1, 1, 0, 0, s.seq, 0, time.UTC)
	}
	s.content[contentKey(item.Type, item.ID)] = item
}

func (s *fakeStore) item(t models.ContentType, id string) (models.ContentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.content[contentKey(t, id)]
	return item, ok
}

func (s *fakeStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type fakeRepo struct {
	s *fakeStore
}

func (r *fakeRepo) User() repositories.UserRepository         { return &fakeUserRepo{r.s} }
func (r *fakeRepo) Profile() repositories.ProfileRepository   { return &fakeProfileRepo{r.s} }
func (r *fakeRepo) Content() repositories.ContentRepository   { return &fakeContentRepo{r.s} }
func (r *fakeRepo) Identity() repositories.IdentityRepository { return &fakeIdentityRepo{r.s} }
func (r *fakeRepo) Ping(ctx context.Context) error            { return nil }
func (r *fakeRepo) Close() error                              { return nil }

// WithTransaction serializes transactions and restores the user and profile
// tables when fn fails.
func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	users := maps.Clone(r.s.users)
	students := maps.Clone(r.s.studentProfiles)
	contributors := maps.Clone(r.s.contributorProfiles)
	r.s.mu.Unlock()

	if err := fn(r); err != nil {
		r.s.mu.Lock()
		r.s.users = users
		r.s.studentProfiles = students
		r.s.contributorProfiles = contributors
		r.s.mu.Unlock()
		return err
	}
	return nil
}

// ===== USERS =====

// fakeUserRepo mirrors UserPostgreSQL: CreateIfNotExists behaves like
// INSERT ... ON CONFLICT (id) DO NOTHING and reports whether a row was written.
type fakeUserRepo struct{ s *fakeStore }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.getUserCalls++
	if f.s.getUserErr != nil && (f.s.getUserFailures == 0 || f.s.getUserCalls <= f.s.getUserFailures) {
		return nil, f.s.getUserErr
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, u := range f.s.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		out = append(out, &u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.createUserCalls++
	if f.s.createUserErr != nil {
		return f.s.createUserErr
	}
	if _, ok := f.s.users[user.ID]; ok {
		return repositories.ErrDuplicate
	}
	f.s.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) CreateIfNotExists(ctx context.Context, user *models.User) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.createUserCalls++
	if f.s.createUserErr != nil {
		return false, f.s.createUserErr
	}
	if _, ok := f.s.users[user.ID]; ok {
		return false, nil
	}
	f.s.users[user.ID] = *user
	return true, nil
}

func (f *fakeUserRepo) UpdateOnboarding(ctx context.Context, id string, step int, completed bool) error {
	return f.update(id, func(u *models.User) {
		u.OnboardingStep = step
		u.OnboardingCompleted = completed
	})
}

func (f *fakeUserRepo) SetMustChangePassword(ctx context.Context, id string, value bool) error {
	return f.update(id, func(u *models.User) { u.MustChangePassword = value })
}

func (f *fakeUserRepo) update(id string, apply func(*models.User)) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	apply(&u)
	f.s.users[id] = u
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.deletedUsers = append(f.s.deletedUsers, id)
	if _, ok := f.s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.users, id)
	return nil
}

// ===== PROFILES =====

type fakeProfileRepo struct{ s *fakeStore }

func (f *fakeProfileRepo) GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.studentProfiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfileRepo) UpsertStudentProfile(ctx context.Context, profile *models.StudentProfile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createProfileErr != nil {
		return f.s.createProfileErr
	}
	f.s.studentProfiles[profile.UserID] = *profile
	return nil
}

func (f *fakeProfileRepo) CreateStudentProfileIfNotExists(ctx context.Context, profile *models.StudentProfile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createProfileErr != nil {
		return f.s.createProfileErr
	}
	if _, ok := f.s.studentProfiles[profile.UserID]; !ok {
		f.s.studentProfiles[profile.UserID] = *profile
	}
	return nil
}

func (f *fakeProfileRepo) GetContributorProfile(ctx context.Context, userID string) (*models.ContributorProfile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.contributorProfiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfileRepo) CreateContributorProfileIfNotExists(ctx context.Context, profile *models.ContributorProfile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createProfileErr != nil {
		return f.s.createProfileErr
	}
	if _, ok := f.s.contributorProfiles[profile.UserID]; !ok {
		f.s.contributorProfiles[profile.UserID] = *profile
	}
	return nil
}

func (f *fakeProfileRepo) DeleteByUser(ctx context.Context, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.studentProfiles, userID)
	delete(f.s.contributorProfiles, userID)
	return nil
}

// ===== CONTENT =====

// fakeContentRepo mirrors the postgres contracts: List orders on created_at then
// id with an empty Type spanning every table, and Transition only moves rows
// still in the expected status (ErrNotFound / ErrConflict otherwise).
type fakeContentRepo struct{ s *fakeStore }

func (f *fakeContentRepo) CreateNote(ctx context.Context, note *models.Note) error {
	f.s.addContent(models.ContentItem{
		ID: note.ID, Type: models.ContentTypeNote, Title: note.Title, Subject: note.Subject,
		Owner: note.CreatedBy, Status: note.Status,
	})
	return nil
}

func (f *fakeContentRepo) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	f.s.addContent(models.ContentItem{
		ID: quiz.ID, Type: models.ContentTypeQuiz, Title: quiz.Title, Subject: quiz.Subject,
		Owner: quiz.CreatedBy, Status: quiz.Status,
	})
	return nil
}

func (f *fakeContentRepo) CreatePastPaper(ctx context.Context, paper *models.PastPaper) error {
	f.s.addContent(models.ContentItem{
		ID: paper.ID, Type: models.ContentTypePastPaper, Title: paper.Title, Subject: paper.Subject,
		Owner: paper.UploadedBy, Status: paper.Status,
	})
	return nil
}

func (f *fakeContentRepo) GetItem(ctx context.Context, contentType models.ContentType, id string) (*models.ContentItem, error) {
	item, ok := f.s.item(contentType, id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (f *fakeContentRepo) List(ctx context.Context, filters models.ContentFilters) ([]models.ContentItem, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var matched []models.ContentItem
	for _, item := range f.s.content {
		if filters.Type != "" && item.Type != filters.Type {
			continue
		}
		if filters.Status != nil && item.Status != *filters.Status {
			continue
		}
		if filters.Owner != nil && item.Owner != *filters.Owner {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filters.NewestFirst {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	start := min(filters.Offset, len(matched))
	end := len(matched)
	if filters.Limit > 0 {
		end = min(start+filters.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (f *fakeContentRepo) CountByStatus(ctx context.Context, contentType models.ContentType, owner *string) (models.StatusCounts, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	var counts models.StatusCounts
	for _, item := range f.s.content {
		if item.Type != contentType || (owner != nil && item.Owner != *owner) {
			continue
		}
		switch item.Status {
		case models.ContentStatusPending:
			counts.Pending++
		case models.ContentStatusPublished:
			counts.Published++
		case models.ContentStatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (f *fakeContentRepo) Transition(ctx context.Context, contentType models.ContentType, id string, from models.ContentStatus, update repositories.ReviewUpdate) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.transitionCalls++

	key := contentKey(contentType, id)
	item, ok := f.s.content[key]
	if !ok {
		return repositories.ErrNotFound
	}
	if item.Status != from {
		return repositories.ErrConflict
	}

	reviewer := update.ReviewedBy
	reviewedAt := update.ReviewedAt
	item.Status = update.Status
	item.Feedback = update.Feedback
	item.ReviewedBy = &reviewer
	item.ReviewedAt = &reviewedAt
	item.PublishedAt = update.PublishedAt
	f.s.content[key] = item
	return nil
}

// ===== IDENTITY PROVIDER =====

type fakeIdentityRepo struct{ s *fakeStore }

func (f *fakeIdentityRepo) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	id, ok := f.s.tokens[token]
	if !ok {
		return nil, repositories.ErrInvalidCredentials
	}
	identity := f.s.identities[id]
	return &identity, nil
}

func (f *fakeIdentityRepo) SignInWithPassword(ctx context.Context, email, password string) (*models.IdentityToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, identity := range f.s.identities {
		if identity.Email == email && f.s.passwords[id] == password {
			return f.issue(identity), nil
		}
	}
	return nil, repositories.ErrInvalidCredentials
}

func (f *fakeIdentityRepo) ExchangeCode(ctx context.Context, code string) (*models.IdentityToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	id, ok := f.s.codes[code]
	if !ok {
		return nil, repositories.ErrInvalidCredentials
	}
	return f.issue(f.s.identities[id]), nil
}

// issue must be called with the store lock held
func (f *fakeIdentityRepo) issue(identity models.Identity) *models.IdentityToken {
	token := "token-" + identity.ID
	f.s.tokens[token] = identity.ID
	return &models.IdentityToken{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(time.Hour),
		Identity:    &identity,
	}
}

func (f *fakeIdentityRepo) AuthorizeURL(state string) string {
	return "https://id.example.test/login/oauth/authorize?state=" + state
}

func (f *fakeIdentityRepo) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, identity := range f.s.identities {
		if strings.EqualFold(identity.Email, email) {
			return &identity, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeIdentityRepo) Create(ctx context.Context, identity *models.Identity, password string) (*models.Identity, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createIdentErr != nil {
		return nil, f.s.createIdentErr
	}
	for _, existing := range f.s.identities {
		if existing.Email == identity.Email {
			return nil, repositories.ErrDuplicate
		}
	}
	created := *identity
	created.ID = fmt.Sprintf("ident-%d", len(f.s.identities)+1)
	f.s.identities[created.ID] = created
	f.s.passwords[created.ID] = password
	return &created, nil
}

func (f *fakeIdentityRepo) Delete(ctx context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.deletedIdentities = append(f.s.deletedIdentities, id)
	if _, ok := f.s.identities[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.s.identities, id)
	delete(f.s.passwords, id)
	return nil
}

func (f *fakeIdentityRepo) SetPassword(ctx context.Context, id, oldPassword, newPassword string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.setPasswordErr != nil {
		return f.s.setPasswordErr
	}
	if f.s.passwords[id] != oldPassword {
		return repositories.ErrInvalidCredentials
	}
	f.s.passwords[id] = newPassword
	return nil
}

// ===== FIXTURES =====

type fixture struct {
	store     *fakeStore
	repo      *fakeRepo
	publisher *events.MockEventPublisher
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func newFixture() *fixture {
	store := newFakeStore()
	logger := discardLogger()
	return &fixture{
		store:     store,
		repo:      &fakeRepo{s: store},
		publisher: events.NewMockEventPublisher(logger),
		cache:     cache.NewCacheManager(nil),
		logger:    logger,
		validator: validator.New(),
	}
}

var (
	adminUser       = &models.User{ID: "admin-1", Email: "admin@stemhub.test", Role: models.RoleAdmin, OnboardingCompleted: true}
	contributorUser = &models.User{ID: "contrib-1", Email: "writer@stemhub.test", Role: models.RoleContributor, OnboardingCompleted: true}
	studentUser     = &models.User{ID: "student-1", Email: "learner@stemhub.test", Role: models.RoleStudent}
)
