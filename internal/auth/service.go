package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-playground/validator/v10"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/pharmakit/storefront/pkg/config"
)

// Role names carried as a user attribute in the identity provider.
const (
	RolePatient  = "patient"
	RolePharmacy = "pharmacy"
)

// identityProvider is the subset of the gocloak client the service uses.
type identityProvider interface {
	LoginClient(ctx context.Context, clientID, clientSecret, realm string, scopes ...string) (*gocloak.JWT, error)
	Login(ctx context.Context, clientID, clientSecret, realm, username, password string) (*gocloak.JWT, error)
	CreateUser(ctx context.Context, accessToken, realm string, user gocloak.User) (string, error)
	GetUserInfo(ctx context.Context, accessToken, realm string) (*gocloak.UserInfo, error)
	Logout(ctx context.Context, clientID, clientSecret, realm, refreshToken string) error
}

// RegisterDto carries a new account's data.
type RegisterDto struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=patient pharmacy"`
}

// Credentials carry a sign-in attempt.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the result of a successful sign-in.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Identity is the signed-in user as the storefront sees them.
type Identity struct {
	UserID string
	Email  string
	Role   string
	Tokens TokenPair
}

// Service registers and signs in users against Keycloak.
type Service struct {
	idp      identityProvider
	realm    string
	clientID string
	secret   string
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates an auth service over a gocloak client.
func NewService(idp identityProvider, cfg config.IdP, logger *slog.Logger) *Service {
	return &Service{
		idp:      idp,
		realm:    cfg.Realm,
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
		validate: validator.New(),
		logger:   logger.With("component", "auth"),
	}
}

// Register creates a new account with the requested role attribute.
// Returns ErrUserExists when the email is already taken.
func (s *Service) Register(ctx context.Context, dto RegisterDto) (string, error) {
	if err := s.validate.Struct(dto); err != nil {
		return "", fmt.Errorf("invalid registration data: %w", err)
	}

	adminToken, err := s.idp.LoginClient(ctx, s.clientID, s.secret, s.realm)
	if err != nil {
		return "", fmt.Errorf("failed to authenticate against identity provider: %w", err)
	}

	user := gocloak.User{
		Email:         gocloak.StringP(dto.Email),
		Username:      gocloak.StringP(dto.Email),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(false),
		Attributes:    &map[string][]string{"role": {dto.Role}},
		Credentials: &[]gocloak.CredentialRepresentation{{
			Type:      gocloak.StringP("password"),
			Value:     gocloak.StringP(dto.Password),
			Temporary: gocloak.BoolP(false),
		}},
	}
	userID, err := s.idp.CreateUser(ctx, adminToken.AccessToken, s.realm, user)
	if err != nil {
		if isConflict(err) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.InfoContext(ctx, "Registered new user", "user_id", userID, "role", dto.Role)
	return userID, nil
}

// SignIn exchanges credentials for tokens and resolves the user's identity.
// Returns ErrInvalidCredentials on a wrong email or password.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := s.validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	grant, err := s.idp.Login(ctx, s.clientID, s.secret, s.realm, creds.Email, creds.Password)
	if err != nil {
		if isUnauthorized(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	info, err := s.idp.GetUserInfo(ctx, grant.AccessToken, s.realm)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user info: %w", err)
	}

	identity := &Identity{
		Email: creds.Email,
		Role:  roleFromToken(grant.AccessToken),
		Tokens: TokenPair{
			AccessToken:  grant.AccessToken,
			RefreshToken: grant.RefreshToken,
			ExpiresIn:    grant.ExpiresIn,
		},
	}
	if info.Sub != nil {
		identity.UserID = *info.Sub
	}
	return identity, nil
}

// roleFromToken reads the role claim the provider maps from the user
// attribute. The token came straight from the provider over TLS, so it
// is decoded without signature verification here; request-path
// verification stays with the JWKS verifier.
func roleFromToken(accessToken string) string {
	tok, err := jwt.ParseInsecure([]byte(accessToken))
	if err != nil {
		return RolePatient
	}
	var role string
	if err := tok.Get("role", &role); err != nil || role == "" {
		return RolePatient
	}
	return role
}

// SignOut invalidates the refresh token at the identity provider. Best
// effort: the local session is destroyed regardless.
func (s *Service) SignOut(ctx context.Context, refreshToken string) {
	if err := s.idp.Logout(ctx, s.clientID, s.secret, s.realm, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate refresh token", "error", err)
	}
}

func isConflict(err error) bool {
	apiErr, ok := err.(*gocloak.APIError)
	return ok && apiErr.Code == 409
}

func isUnauthorized(err error) bool {
	if apiErr, ok := err.(*gocloak.APIError); ok {
		return apiErr.Code == 401
	}
	return strings.Contains(err.Error(), "invalid_grant")
}
