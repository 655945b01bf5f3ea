package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/storage"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

// Dependencies holds what the services are built from
type Dependencies struct {
	Repo         repositories.Repository
	CacheManager *cache.CacheManager
	Publisher    events.EventPublisher
	Presigner    storage.Presigner
	Logger       *slog.Logger
	Validator    *validator.Validator
	Session      SessionConfig
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	sessionService    SessionService
	reviewService     ReviewService
	inviteService     InviteService
	onboardingService OnboardingService
	contentService    ContentService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.CacheManager == nil {
		deps.CacheManager = cache.NewCacheManager(nil)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewMockEventPublisher(deps.Logger)
	}
	return &serviceManager{deps: deps}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil || sm.deps.Logger == nil || sm.deps.Validator == nil {
		return errors.New("service manager requires a repository, logger and validator")
	}

	sm.deps.Logger.Info("Initializing service manager")

	d := sm.deps
	sm.sessionService = NewSessionService(d.Repo, d.Publisher, d.Logger, d.Validator, d.Session)
	sm.reviewService = NewReviewService(d.Repo, d.CacheManager, d.Publisher, d.Logger, d.Validator)
	sm.inviteService = NewInviteService(d.Repo, d.Publisher, d.Logger, d.Validator)
	sm.onboardingService = NewOnboardingService(d.Repo, d.CacheManager, d.Logger, d.Validator)
	sm.contentService = NewContentService(d.Repo, d.CacheManager, d.Presigner, d.Publisher, d.Logger, d.Validator)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.sessionService
}

func (sm *serviceManager) Review() ReviewService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.reviewService
}

func (sm *serviceManager) Invite() InviteService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.inviteService
}

func (sm *serviceManager) Onboarding() OnboardingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.onboardingService
}

func (sm *serviceManager) Content() ContentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.contentService
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) Health(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if err := sm.deps.CacheManager.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	var errs []error
	if err := sm.deps.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}

	sm.shutdown = true
	return errors.Join(errs...)
}
