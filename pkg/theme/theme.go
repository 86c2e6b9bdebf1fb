package theme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultTenant is the tenant sentinel that always gets the default theme
const DefaultTenant = "carbon.super"

// TenantPlaceholder is substituted with the tenant domain in tenantCustomCss
const TenantPlaceholder = "<tenant-domain>"

// Title is the page title metadata of a theme
type Title struct {
	Prefix string `json:"prefix"`
	Sufix  string `json:"sufix"`
}

// Custom is the portal-specific part of a theme
type Custom struct {
	Title           Title  `json:"title"`
	TenantCustomCSS string `json:"tenantCustomCss"`
}

// Theme is a resolved visual theme. Only the fields the shell uses are typed;
// the whole document is kept and handed to the page.
type Theme struct {
	Custom       Custom
	PrimaryColor string

	raw json.RawMessage
}

type themeFields struct {
	Palette struct {
		Primary struct {
			Main string `json:"main"`
		} `json:"primary"`
	} `json:"palette"`
	Custom Custom `json:"custom"`
}

// Parse decodes a single theme object
func Parse(data []byte) (*Theme, error) {
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &t, nil
}

// FromMap builds a theme from a decoded object such as the deployment file's
// defaultTheme block
func FromMap(m map[string]interface{}) (*Theme, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Parse(data)
}

// UnmarshalJSON keeps the raw object alongside the typed fields
func (t *Theme) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("theme must be a JSON object")
	}

	var fields themeFields
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}

	t.Custom = fields.Custom
	t.PrimaryColor = fields.Palette.Primary.Main
	t.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON emits the theme document
func (t *Theme) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	var fields themeFields
	fields.Custom = t.Custom
	fields.Palette.Primary.Main = t.PrimaryColor
	return json.Marshal(fields)
}

// Title returns the page title, prefix followed by sufix
func (t *Theme) Title() string {
	return t.Custom.Title.Prefix + t.Custom.Title.Sufix
}

// StylesheetURL returns the tenant custom stylesheet under the application
// context, or "" when the theme has none. The tenant placeholder is replaced
// only when a tenant domain is set.
func (t *Theme) StylesheetURL(context, tenantDomain string) string {
	css := t.Custom.TenantCustomCSS
	if css == "" {
		return ""
	}
	if tenantDomain != "" {
		css = strings.Replace(css, TenantPlaceholder, tenantDomain, 1)
	}
	return context + "/" + css
}

// Document is the hosted tenant theme file
//
//	{"themes": {"light": {...}}}
type Document struct {
	Themes struct {
		Light *Theme `json:"light"`
	} `json:"themes"`
}

// ParseDocument decodes a hosted theme file and returns its light theme
func ParseDocument(data []byte) (*Theme, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Themes.Light == nil {
		return nil, fmt.Errorf("%w: missing themes.light", ErrMalformed)
	}
	return doc.Themes.Light, nil
}

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,252}$`)

// ValidTenant reports whether tenant can be used as a path segment
func ValidTenant(tenant string) bool {
	return tenantPattern.MatchString(tenant) && !strings.Contains(tenant, "..")
}

// Path returns the hosting path of a tenant theme, relative to
// {context}/site/public/tenant_themes
func Path(tenant string) string {
	return tenant + "/apim/defaultTheme.json"
}
