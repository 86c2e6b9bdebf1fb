// Package portal is the root of the developer portal page.
//
// Every page load mounts a Controller. Mount fetches the settings and
// resolves the tenant theme concurrently; once the settings arrive the
// passive login gate runs with them. Render then turns the final state into
// a View:
//
//	redirect > loading placeholder > shell > nothing
//
// The shell embeds the exposed context (settings, tenant domain, view id).
// Mounted shells stay in a Registry for a while so the page can read the
// context and call setTenantDomain or setSettings through
//
//	GET {context}/api/context/{view}
//	PUT {context}/api/context/{view}/tenant
//	PUT {context}/api/context/{view}/settings
package portal
