package services

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"portfolio-backend/internal/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

// CredentialChecker decides whether an email/password pair is the operator's
type CredentialChecker interface {
	Check(email, password string) bool
}

// StaticCredentials compares against a single configured email and password.
// The password may be given as a bcrypt hash.
type StaticCredentials struct {
	email    string
	password string
}

// NewStaticCredentials creates a checker for the configured operator
func NewStaticCredentials(email, password string) *StaticCredentials {
	return &StaticCredentials{
		email:    strings.ToLower(strings.TrimSpace(email)),
		password: password,
	}
}

// Check always evaluates both fields so a wrong email and a wrong password
// cannot be told apart
func (c *StaticCredentials) Check(email, password string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(c.email)) == 1

	var passwordOK bool
	if isBcryptHash(c.password) {
		passwordOK = bcrypt.CompareHashAndPassword([]byte(c.password), []byte(password)) == nil
	} else {
		passwordOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	}

	return emailOK && passwordOK && c.email != ""
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// AuthService issues and validates admin session tokens. Tokens are stateless:
// there is no server-side revocation, a token stays valid until it expires.
type AuthService struct {
	checker   CredentialChecker
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(checker CredentialChecker, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		checker:   checker,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Login returns a signed token and its expiry for valid operator credentials
func (s *AuthService) Login(email, password string) (string, time.Time, error) {
	if !s.checker.Check(email, password) {
		return "", time.Time{}, apperrors.InvalidCredentials()
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken checks signature, subject and expiry of tokenString
func (s *AuthService) ValidateToken(tokenString string) error {
	if tokenString == "" {
		return apperrors.Unauthorized("token required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnauthorized, "invalid token", err)
	}
	if !token.Valid {
		return apperrors.Unauthorized("invalid token")
	}

	return nil
}
