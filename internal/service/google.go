package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleIdentity is the verified profile returned by Google
type GoogleIdentity struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleVerifier resolves an authorization code or access token to a profile
type GoogleVerifier interface {
	Verify(ctx context.Context, code, accessToken string) (*GoogleIdentity, error)
}

type oauthGoogleVerifier struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleVerifier builds a verifier for the given OAuth client.
// The redirect URL is "postmessage" for codes obtained by the JS popup flow.
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) GoogleVerifier {
	return &oauthGoogleVerifier{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (v *oauthGoogleVerifier) Verify(ctx context.Context, code, accessToken string) (*GoogleIdentity, error) {
	var token *oauth2.Token
	switch {
	case code != "":
		t, err := v.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: code exchange: %v", ErrGoogleVerification, err)
		}
		token = t
	case accessToken != "":
		token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	default:
		return nil, fmt.Errorf("%w: code or access_token required", ErrGoogleVerification)
	}

	resp, err := v.config.Client(ctx, token).Get(v.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", ErrGoogleVerification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrGoogleVerification, resp.StatusCode)
	}

	var identity GoogleIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrGoogleVerification, err)
	}
	if identity.Email == "" || !identity.EmailVerified {
		return nil, fmt.Errorf("%w: email missing or unverified", ErrGoogleVerification)
	}
	identity.Email = strings.ToLower(identity.Email)
	return &identity, nil
}
