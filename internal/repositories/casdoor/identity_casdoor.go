package casdoor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
	RedirectURL      string
}

var nameSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

type IdentityCasdoor struct {
	client *casdoorsdk.Client
	oauth  *oauth2.Config
	cache  *cache.CacheHelper
	config CasdoorConfig
}

func NewIdentityCasdoor(config CasdoorConfig, cacheManager *cache.CacheManager) repositories.IdentityRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	endpoint := strings.TrimRight(config.Endpoint, "/")
	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   endpoint + "/login/oauth/authorize",
			TokenURL:  endpoint + "/api/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &IdentityCasdoor{
		client: client,
		oauth:  oauthConfig,
		cache:  cacheManager.Identity,
		config: config,
	}
}

// ===== CONVERSION METHODS =====

func toIdentity(u *casdoorsdk.User) *models.Identity {
	if u == nil {
		return nil
	}
	return &models.Identity{
		ID:          u.Id,
		Name:        u.Name,
		Email:       strings.ToLower(u.Email),
		DisplayName: u.DisplayName,
	}
}

// ===== SIGN-IN =====

// VerifyToken validates a provider-issued JWT against the configured certificate
func (i *IdentityCasdoor) VerifyToken(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := i.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrInvalidCredentials, err)
	}
	if claims.User.Id == "" {
		return nil, fmt.Errorf("%w: token carries no user id", repositories.ErrInvalidCredentials)
	}
	return toIdentity(&claims.User), nil
}

// SignInWithPassword uses the resource owner password grant
func (i *IdentityCasdoor) SignInWithPassword(ctx context.Context, email, password string) (*models.IdentityToken, error) {
	token, err := i.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %s", repositories.ErrInvalidCredentials, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("password sign-in failed: %w", err)
	}
	return i.toIdentityToken(ctx, token)
}

// ExchangeCode completes the authorization code flow
func (i *IdentityCasdoor) ExchangeCode(ctx context.Context, code string) (*models.IdentityToken, error) {
	token, err := i.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %s", repositories.ErrInvalidCredentials, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return i.toIdentityToken(ctx, token)
}

func (i *IdentityCasdoor) AuthorizeURL(state string) string {
	return i.oauth.AuthCodeURL(state)
}

func (i *IdentityCasdoor) toIdentityToken(ctx context.Context, token *oauth2.Token) (*models.IdentityToken, error) {
	identity, err := i.VerifyToken(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return &models.IdentityToken{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
		Identity:    identity,
	}, nil
}

// ===== ACCOUNT MANAGEMENT =====

// GetByEmail looks an identity up by email. Only hits are cached.
func (i *IdentityCasdoor) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	cacheKey := "email:" + email

	var cached models.Identity
	if err := i.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	user, err := i.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get identity by email from Casdoor: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("identity %s: %w", email, repositories.ErrNotFound)
	}

	identity := toIdentity(user)
	cache.SafeSet(ctx, i.cache, cacheKey, identity, cache.IdentityCacheConfig.TTL)
	return identity, nil
}

// Create registers a new identity in the configured organization
func (i *IdentityCasdoor) Create(ctx context.Context, identity *models.Identity, password string) (*models.Identity, error) {
	id := uuid.New().String()
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user := &casdoorsdk.User{
		Owner:             i.config.OrganizationName,
		Name:              accountName(email, id),
		Id:                id,
		Type:              "normal-user",
		Password:          password,
		DisplayName:       identity.DisplayName,
		Email:             email,
		SignupApplication: i.config.ApplicationName,
	}

	ok, err := i.client.AddUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity in Casdoor: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to create identity in Casdoor: %w", repositories.ErrDuplicate)
	}

	cache.SafeDelete(ctx, i.cache, "email:"+email)
	return toIdentity(user), nil
}

func (i *IdentityCasdoor) Delete(ctx context.Context, id string) error {
	user, err := i.client.GetUserByUserId(id)
	if err != nil {
		return fmt.Errorf("failed to get identity from Casdoor: %w", err)
	}
	if user == nil {
		return fmt.Errorf("identity %s: %w", id, repositories.ErrNotFound)
	}

	if _, err := i.client.DeleteUser(user); err != nil {
		return fmt.Errorf("failed to delete identity in Casdoor: %w", err)
	}

	cache.SafeDelete(ctx, i.cache, "email:"+strings.ToLower(user.Email))
	return nil
}

func (i *IdentityCasdoor) SetPassword(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := i.client.GetUserByUserId(id)
	if err != nil {
		return fmt.Errorf("failed to get identity from Casdoor: %w", err)
	}
	if user == nil {
		return fmt.Errorf("identity %s: %w", id, repositories.ErrNotFound)
	}

	if err := i.verifyPassword(ctx, user.Name, oldPassword); err != nil {
		return err
	}

	ok, err := i.client.SetPassword(user.Owner, user.Name, oldPassword, newPassword)
	if err != nil {
		return fmt.Errorf("failed to set password in Casdoor: %w", err)
	}
	if !ok {
		return fmt.Errorf("casdoor refused password update for identity %s", id)
	}
	return nil
}

// verifyPassword checks a password through the password grant. Only a token
// endpoint rejection counts as bad credentials; transport failures do not.
func (i *IdentityCasdoor) verifyPassword(ctx context.Context, username, password string) error {
	if _, err := i.oauth.PasswordCredentialsToken(ctx, username, password); err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("%w: %s", repositories.ErrInvalidCredentials, retrieveErr.ErrorCode)
		}
		return fmt.Errorf("password verification failed: %w", err)
	}
	return nil
}

// accountName derives a unique provider account name from an email address
func accountName(email, id string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.Trim(nameSanitizer.ReplaceAllString(local, "-"), "-")
	if local == "" {
		local = "user"
	}
	return fmt.Sprintf("%s-%s", local, id[:8])
}
