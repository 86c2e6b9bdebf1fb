// Package sso signs portal users in with OpenID Connect.
//
// The passive probe endpoint, GET {context}/services/configs?loginPrompt=false,
// starts an authorization request with prompt=none: the identity provider
// answers immediately, either with a code for an already signed-in user or
// with an error such as login_required. The callback turns the answer into
// browser-session state:
//
//   - a code: the user is stored under "user"
//   - access_denied: "notEnoughPermission" is set, which stops further
//     passive checks
//   - login_required and similar: nothing is stored
//
// Without a configured identity provider the probe endpoint answers with a
// small JSON document, which is enough for the direct probe.
//
//	provider, err := sso.NewOIDCProvider(ctx, &sso.Config{
//	    IssuerURL:    "https://idp.example.com",
//	    ClientID:     "devportal",
//	    ClientSecret: secret,
//	    RedirectURL:  "https://portal.example.com/devportal/services/auth/callback",
//	    Scopes:       []string{"openid", "profile", "email"},
//	})
//	sso.NewHandlers(provider, store, "/devportal").RegisterRoutes(router)
package sso
