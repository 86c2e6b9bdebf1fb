package sso

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Provider is an identity provider the portal signs users in with
type Provider interface {
	// AuthCodeURL returns the authorization endpoint URL for state. A passive
	// request asks the identity provider not to prompt (prompt=none).
	AuthCodeURL(state string, passive bool) string

	// Exchange redeems an authorization code for the signed-in user
	Exchange(ctx context.Context, code string) (*User, error)
}

// OIDCProvider implements Provider with OpenID Connect
type OIDCProvider struct {
	config       *Config
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewOIDCProvider discovers the issuer and creates the provider
func NewOIDCProvider(ctx context.Context, config *Config) (*OIDCProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("OIDC config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OIDC config: %w", err)
	}

	// Discover OIDC provider
	provider, err := oidc.NewProvider(ctx, config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:                   config.ClientID,
		InsecureSkipSignatureCheck: config.skipSignatureCheck,
	})

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  config.RedirectURL,
		Scopes:       config.Scopes,
	}

	return &OIDCProvider{
		config:       config,
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
	}, nil
}

// AuthCodeURL returns the authorization URL
func (p *OIDCProvider) AuthCodeURL(state string, passive bool) string {
	if passive {
		return p.oauth2Config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
	}
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange redeems the code and verifies the ID token
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*User, error) {
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	user := &User{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if user.Name == "" {
		user.Name = claims.PreferredUsername
	}
	if user.Subject == "" {
		return nil, fmt.Errorf("missing subject in ID token")
	}

	return user, nil
}
