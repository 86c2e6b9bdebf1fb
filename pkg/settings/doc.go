// Package settings loads the portal's runtime settings.
//
// The bootstrap fetches settings exactly once per page load and only reads
// identityProvider.external from them; the rest of the payload is opaque and
// handed to the page unchanged.
//
//	client := settings.NewHTTPClient("http://localhost:8080/devportal/services/settings", nil)
//	s, err := client.Fetch(ctx)
//	if err != nil {
//	    // the page stays un-rendered for this load
//	}
//	if s.IdentityProvider.External {
//	    // passive login goes through a redirect
//	}
//
// Handler serves a static payload (the settings block of the deployment file)
// so a single binary can run the whole portal.
package settings
