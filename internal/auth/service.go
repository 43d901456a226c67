package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// AccountStore persists teacher accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a domain.Account) error
	AccountByEmail(ctx context.Context, email string) (domain.Account, error)
	AccountByID(ctx context.Context, accountID string) (domain.Account, error)
}

// RevocationList remembers signed-out token IDs until they would have
// expired anyway.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service signs accounts up and in, issues and validates session tokens, and
// brokers third-party provider sign-in. Store and token errors propagate
// unmodified beyond the sentinels defined in domain.
type Service struct {
	accounts  AccountStore
	revoked   RevocationList
	secret    []byte
	tokenTTL  time.Duration
	providers map[string]Provider
	now       func() time.Time
	newID     func() string
}

func NewService(accounts AccountStore, revoked RevocationList, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		accounts:  accounts,
		revoked:   revoked,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		providers: make(map[string]Provider),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Register creates an account with a bcrypt-hashed password on the free plan.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (domain.Account, error) {
	_, err := s.accounts.AccountByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.Account{}, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrAccountNotFound):
		return domain.Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           s.newID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Plan:         domain.PlanFree,
		CreatedAt:    s.now(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// SignIn validates credentials and returns a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, domain.Account, error) {
	account, err := s.accounts.AccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", domain.Account{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", domain.Account{}, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(account)
	if err != nil {
		return "", domain.Account{}, err
	}
	return token, account, nil
}

// SignOut revokes the token until its natural expiry.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// CurrentAccount resolves the active identity for a token, or
// domain.ErrUnauthenticated.
func (s *Service) CurrentAccount(ctx context.Context, token string) (domain.Account, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return domain.Account{}, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.Account{}, err
	}
	if revoked {
		return domain.Account{}, domain.ErrUnauthenticated
	}
	return s.accounts.AccountByID(ctx, claims.Subject)
}

// CurrentProfile returns the account's profile view, including plan tier.
func (s *Service) CurrentProfile(ctx context.Context, token string) (domain.Profile, error) {
	account, err := s.CurrentAccount(ctx, token)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Plan:        account.Plan,
	}, nil
}

func (s *Service) issueToken(account domain.Account) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        s.newID(),
		Subject:   account.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
