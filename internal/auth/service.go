// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserInfo struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
}

// UserProvider is the slice of the user module that authentication needs.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id int64) (*UserInfo, error)
	Create(
		ctx context.Context,
		username, email, passwordHash string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenIssuer signs and parses access tokens.
type TokenIssuer interface {
	CreateAccessToken(userID int64, email string) (*IssuedToken, error)
	ParseAccessToken(token string) (*TokenClaims, error)
}

type Service struct {
	tokens    TokenIssuer
	users     UserProvider
	blacklist Blacklist
}

func NewService(
	tokens TokenIssuer,
	users UserProvider,
	blacklist Blacklist,
) *Service {
	return &Service{
		tokens:    tokens,
		users:     users,
		blacklist: blacklist,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (UserResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.register")
	defer span.End()

	email := normalizeEmail(req.Email)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return UserResponse{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		slog.WarnContext(ctx, "registration with existing email", "email", email)
		return UserResponse{}, core.FieldConflictError("email", email)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, strings.TrimSpace(req.Username), email, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return UserResponse{}, core.FieldConflictError("email", email)
		}
		return UserResponse{}, fmt.Errorf("create user: %w", err)
	}

	core.AddSpanEvent(ctx, "user.registered", attribute.Int64("user.id", user.ID))
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)

	return toUserResponse(user), nil
}

// Login spends the same hashing work for unknown emails and wrong
// passwords, and answers both with the same error.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (TokenResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return TokenResponse{}, invalidCredentials()
		}
		return TokenResponse{}, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		slog.WarnContext(ctx, "failed login", "user_id", user.ID)
		return TokenResponse{}, invalidCredentials()
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	issued, err := s.tokens.CreateAccessToken(user.ID, user.Email)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("create access token: %w", err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)

	return TokenResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(issued.ExpiresAt).Round(time.Second).Seconds()),
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return core.UnauthorizedError("")
	}

	if err := s.blacklist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	slog.InfoContext(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}

func (s *Service) Me(ctx context.Context, userID int64) (UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return UserResponse{}, core.NotFoundError("User", "id", userID)
		}
		return UserResponse{}, err
	}

	return toUserResponse(user), nil
}

// VerifyAccessToken checks the signature and claims, rejects revoked
// tokens and reloads the user so role changes apply on the next request.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.tokens.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf(
				"verify token: subject no longer exists: %w",
				core.ErrTokenInvalid,
			)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	return &middleware.AccessTokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     user.Roles,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func invalidCredentials() *core.AppError {
	return core.NewAppError(
		ErrInvalidCredentials,
		"invalid email or password",
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
	)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
