// Package theme resolves the visual theme of a portal page.
//
// A page without a tenant, or with the default tenant (carbon.super), uses
// the default theme straight away. Any other tenant's theme is fetched from
// its hosting location and the light variant is used:
//
//	GET {context}/site/public/tenant_themes/{tenant}/apim/defaultTheme.json
//	{"themes": {"light": {...}}}
//
// A failed fetch, a non-2xx answer, invalid JSON or a missing themes.light
// all fall back to the default theme. Resolver.Resolve never returns nil.
//
// # Caching
//
// CachedResolver keeps successfully fetched themes in an expiring LRU.
// Failures are not cached. A Watcher on a FileStore invalidates a tenant's
// entry as soon as its files change.
//
// # Hosting
//
// Themes are hosted from a Store: FileStore (a directory tree) or S3Store.
// Handler exposes a store on the hosting route.
package theme
