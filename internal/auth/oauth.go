package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

// ErrUnknownProvider is returned for providers that were never registered.
var ErrUnknownProvider = errors.New("unknown sign-in provider")

// ProfileFetcher turns a provider token into (email, display name).
type ProfileFetcher func(ctx context.Context, tok *oauth2.Token) (email, displayName string, err error)

// Provider is a third-party sign-in integration: an oauth2 config plus a way
// to read the signed-in profile.
type Provider struct {
	Config       *oauth2.Config
	FetchProfile ProfileFetcher
}

// RegisterProvider makes a provider available by name.
func (s *Service) RegisterProvider(name string, p Provider) {
	s.providers[name] = p
}

// BeginProviderSignIn returns the provider's consent URL and the state value
// the callback must echo back. State verification is the caller's job; this
// service only generates it.
func (s *Service) BeginProviderSignIn(provider string) (authURL, state string, err error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", "", ErrUnknownProvider
	}
	state = s.newID()
	return p.Config.AuthCodeURL(state), state, nil
}

// CompleteProviderSignIn exchanges the callback code, reads the provider
// profile, upserts the account by email, and issues a session token.
// Provider-created accounts carry no password hash.
func (s *Service) CompleteProviderSignIn(ctx context.Context, provider, code string) (string, domain.Account, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", domain.Account{}, ErrUnknownProvider
	}

	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return "", domain.Account{}, err
	}
	email, displayName, err := p.FetchProfile(ctx, tok)
	if err != nil {
		return "", domain.Account{}, err
	}

	account, err := s.accounts.AccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		account = domain.Account{
			ID:          s.newID(),
			Email:       email,
			DisplayName: displayName,
			Plan:        domain.PlanFree,
			CreatedAt:   s.now(),
		}
		if err := s.accounts.CreateAccount(ctx, account); err != nil {
			return "", domain.Account{}, err
		}
	} else if err != nil {
		return "", domain.Account{}, err
	}

	token, err := s.issueToken(account)
	if err != nil {
		return "", domain.Account{}, err
	}
	return token, account, nil
}

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider builds the Google sign-in integration used in production.
func GoogleProvider(clientID, clientSecret, redirectURL string) Provider {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
	return Provider{
		Config:       cfg,
		FetchProfile: googleProfile(cfg),
	}
}

func googleProfile(cfg *oauth2.Config) ProfileFetcher {
	return func(ctx context.Context, tok *oauth2.Token) (string, string, error) {
		resp, err := cfg.Client(ctx, tok).Get(googleUserinfoURL)
		if err != nil {
			return "", "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", "", fmt.Errorf("google userinfo: status %d", resp.StatusCode)
		}

		var info struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return "", "", err
		}
		return info.Email, info.Name, nil
	}
}
