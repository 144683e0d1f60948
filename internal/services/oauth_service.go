package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yukikurage/coaching-plans-api/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	// ErrOAuthExchange means the provider rejected the code or its profile could not be read.
	ErrOAuthExchange = errors.New("oauth exchange failed")
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthUserInfo is the subset of a provider profile used for sign-in.
type OAuthUserInfo struct {
	ID    string
	Email string
	Name  string
}

// OAuthProvider is one social sign-in provider.
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchUser(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// GoogleProvider implements OAuthProvider with Google's OAuth2 endpoints.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider configures Google sign-in. callbackBaseURL is the public
// base URL of this API; the callback path is appended to it.
func NewGoogleProvider(clientID, clientSecret, callbackBaseURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  strings.TrimRight(callbackBaseURL, "/") + "/api/auth/google/callback",
			Scopes:       []string{"email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GoogleProvider) FetchUser(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API returned status %d", resp.StatusCode)
	}

	var data struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode Google user response: %w", err)
	}

	return &OAuthUserInfo{
		ID:    data.ID,
		Email: data.Email,
		Name:  data.Name,
	}, nil
}

// OAuthService completes social sign-in and issues the API's own token.
type OAuthService struct {
	provider OAuthProvider
	auth     *AuthService
}

func NewOAuthService(provider OAuthProvider, auth *AuthService) *OAuthService {
	return &OAuthService{
		provider: provider,
		auth:     auth,
	}
}

// AuthURL returns the provider consent URL carrying state.
func (s *OAuthService) AuthURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback exchanges code, resolves the user and returns a signed token.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (*models.User, string, error) {
	info, err := s.provider.FetchUser(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrOAuthExchange, err)
	}

	user, err := s.auth.FindOrCreateSocialUser(ctx, SocialIdentity{
		Provider:   s.provider.Name(),
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
