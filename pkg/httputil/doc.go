// Package httputil provides HTTP helpers shared by the portal handlers:
// JSON responses, request parsing and middleware.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, ctxView)
//	httputil.WriteNotFoundError(w, "view not found")
//	httputil.WriteBadRequest(w, "settings must not be null")
//
// Every error body has the shape {"error": "..."}.
//
// # Request Parsing
//
//	var body struct{ TenantDomain string `json:"tenantDomain"` }
//	if !httputil.ParseJSONOrError(w, r, &body) {
//		return // Error response already written
//	}
//
//	view, ok := httputil.ParsePathStringOrError(w, r, "view")
//	loginPrompt, err := httputil.ParseQueryBool(r, "loginPrompt", true)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.NoStoreMiddleware,
//	)(router)
//
// There is no request timeout middleware. A mounted page is never cancelled
// once its bootstrap has started.
package httputil
