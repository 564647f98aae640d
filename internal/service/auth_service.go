package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"go-case-records/internal/model"
	"go-case-records/internal/normalize"
	"go-case-records/pkg/apierror"
)

const sessionIssuer = "case-records"

var bcryptCost = 12

const minPasswordLength = 8

type sessionClaims struct {
	Email       string           `json:"email"`
	Role        string           `json:"role"`
	Name        string           `json:"name"`
	ValidatedAt *jwt.NumericDate `json:"vat"`
	jwt.RegisteredClaims
}

// AuthService authenticates users, issues the signed session cookie value
// and periodically re-checks the session against the store.
type AuthService struct {
	users      userStore
	sessions   sessionStore
	secret     []byte
	ttl        time.Duration
	revalidate time.Duration
	now        func() time.Time
}

func NewAuthService(users userStore, sessions sessionStore, secret string, ttl time.Duration, revalidate time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		secret:     []byte(secret),
		ttl:        ttl,
		revalidate: revalidate,
		now:        time.Now,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.UserView
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (LoginResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return LoginResult{}, apierror.Validation("email and password are required", "")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return LoginResult{}, model.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, model.ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if strings.TrimSpace(req.Code) == "" {
			return LoginResult{}, model.ErrTwoFactorRequired
		}
		ok, err := s.checkCode(req.Code, user.TwoFactorSecret)
		if err != nil {
			return LoginResult{}, err
		}
		if !ok {
			return LoginResult{}, model.ErrInvalidCredentials
		}
	}

	now := s.now().UTC()
	record := model.SessionRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, record); err != nil {
		return LoginResult{}, err
	}

	token, err := s.Issue(model.SessionClaims{
		SubjectID:   user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Name:        user.Name,
		SessionID:   record.ID,
		ValidatedAt: now,
		ExpiresAt:   record.ExpiresAt,
	})
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("user logged in", "user_id", user.ID, "session_id", record.ID)
	return LoginResult{Token: token, ExpiresAt: record.ExpiresAt, User: normalize.User(user)}, nil
}

// Issue signs claims into a session token.
func (s *AuthService) Issue(claims model.SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email:       claims.Email,
		Role:        string(claims.Role),
		Name:        claims.Name,
		ValidatedAt: jwt.NewNumericDate(claims.ValidatedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   claims.SubjectID,
			ID:        claims.SessionID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature and expiry of a session token.
func (s *AuthService) ValidateToken(token string) (model.SessionClaims, error) {
	parsed := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.SessionClaims{}, model.ErrSessionExpired
		}
		return model.SessionClaims{}, model.ErrUnauthorized
	}

	role, ok := model.ParseRole(parsed.Role)
	if !ok || parsed.Subject == "" || parsed.ID == "" {
		return model.SessionClaims{}, model.ErrUnauthorized
	}

	claims := model.SessionClaims{
		SubjectID: parsed.Subject,
		Email:     parsed.Email,
		Role:      role,
		Name:      parsed.Name,
		SessionID: parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.ValidatedAt != nil {
		claims.ValidatedAt = parsed.ValidatedAt.Time
	}
	return claims, nil
}

// Revalidate re-checks the session row and the user row once the
// revalidation interval has passed. It returns a fresh token when the claims
// were refreshed and an empty one when they are still current.
func (s *AuthService) Revalidate(ctx context.Context, claims model.SessionClaims) (model.SessionClaims, string, error) {
	now := s.now().UTC()
	if now.Sub(claims.ValidatedAt) < s.revalidate {
		return claims, "", nil
	}

	if _, err := s.sessions.Validate(ctx, claims.SessionID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.SessionClaims{}, "", model.ErrSessionExpired
		}
		return model.SessionClaims{}, "", err
	}

	user, err := s.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			if revokeErr := s.sessions.Revoke(ctx, claims.SessionID); revokeErr != nil {
				slog.Warn("revoke orphaned session", "session_id", claims.SessionID, "error", revokeErr)
			}
			return model.SessionClaims{}, "", model.ErrUnauthorized
		}
		return model.SessionClaims{}, "", err
	}

	if err := s.sessions.Touch(ctx, claims.SessionID); err != nil {
		slog.Warn("touch session", "session_id", claims.SessionID, "error", err)
	}

	claims.Role = user.Role
	claims.Name = user.Name
	claims.Email = user.Email
	claims.ValidatedAt = now

	token, err := s.Issue(claims)
	if err != nil {
		return model.SessionClaims{}, "", err
	}
	return claims, token, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, session model.Session) (model.UserView, error) {
	user, err := s.users.FindByID(ctx, session.SubjectID)
	if err != nil {
		return model.UserView{}, err
	}
	return normalize.User(user), nil
}

// BeginTwoFactor generates a TOTP secret and stores it as pending until a
// code generated from it is confirmed.
func (s *AuthService) BeginTwoFactor(ctx context.Context, session model.Session) (model.TwoFactorSetup, error) {
	user, err := s.users.FindByID(ctx, session.SubjectID)
	if err != nil {
		return model.TwoFactorSetup{}, err
	}
	if user.TwoFactorEnabled {
		return model.TwoFactorSetup{}, apierror.New(apierror.CodeConflict, "two-factor authentication is already enabled", "", http.StatusConflict)
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: sessionIssuer, AccountName: user.Email})
	if err != nil {
		return model.TwoFactorSetup{}, fmt.Errorf("generate totp key: %w", err)
	}

	secret := key.Secret()
	if err := s.users.SetTwoFactor(ctx, user.ID, &secret, false); err != nil {
		return model.TwoFactorSetup{}, err
	}
	return model.TwoFactorSetup{Secret: secret, URL: key.URL()}, nil
}

func (s *AuthService) ConfirmTwoFactor(ctx context.Context, session model.Session, code string) error {
	user, err := s.users.FindByID(ctx, session.SubjectID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return model.ErrTwoFactorNotPending
	}

	ok, err := s.checkCode(code, user.TwoFactorSecret)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: code does not match", model.ErrValidationFailed)
	}
	return s.users.SetTwoFactor(ctx, user.ID, user.TwoFactorSecret, true)
}

func (s *AuthService) DisableTwoFactor(ctx context.Context, session model.Session, code string) error {
	user, err := s.users.FindByID(ctx, session.SubjectID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return model.ErrTwoFactorNotPending
	}

	ok, err := s.checkCode(code, user.TwoFactorSecret)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: code does not match", model.ErrValidationFailed)
	}
	return s.users.SetTwoFactor(ctx, user.ID, nil, false)
}

// checkCode validates the code format before comparing it with the secret.
func (s *AuthService) checkCode(code string, secret *string) (bool, error) {
	code = strings.TrimSpace(code)
	if !isSixDigits(code) {
		return false, fmt.Errorf("%w: code must be six digits", model.ErrValidationFailed)
	}
	if secret == nil {
		return false, model.ErrTwoFactorNotPending
	}

	ok, err := totp.ValidateCustom(code, *secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Bootstrap creates the first superadmin when the users table is empty.
func (s *AuthService) Bootstrap(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	user, err := s.users.Create(ctx, model.User{
		ID:           id,
		AuthSubject:  id,
		Name:         "Superadmin",
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         model.RoleSuperadmin,
	})
	if err != nil {
		return err
	}

	slog.Info("bootstrap superadmin created", "user_id", user.ID, "email", user.Email)
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apierror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength), "")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
