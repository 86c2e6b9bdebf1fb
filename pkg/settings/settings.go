package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IdentityProvider describes how the deployment authenticates users
type IdentityProvider struct {
	// External is true when a third-party identity provider fronts login.
	// The passive probe then goes through a one-time redirect instead of a
	// direct request.
	External bool `json:"external"`
}

// Settings is the runtime settings object of the portal. Only the fields the
// bootstrap needs are typed; the full payload is kept and re-emitted verbatim
// to the page.
type Settings struct {
	IdentityProvider IdentityProvider

	raw json.RawMessage
}

type settingsFields struct {
	IdentityProvider IdentityProvider `json:"identityProvider"`
}

// Parse decodes a settings payload. The payload must be a JSON object.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// FromMap builds settings from a decoded payload such as the deployment file
func FromMap(payload map[string]interface{}) (*Settings, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return Parse(data)
}

// UnmarshalJSON keeps the raw payload alongside the typed fields
func (s *Settings) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("settings must be a JSON object")
	}

	var fields settingsFields
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}

	s.IdentityProvider = fields.IdentityProvider
	s.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON emits the payload the settings were parsed from
func (s *Settings) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(settingsFields{IdentityProvider: s.IdentityProvider})
}

// Raw returns the original payload
func (s *Settings) Raw() json.RawMessage {
	data, _ := s.MarshalJSON()
	return data
}
