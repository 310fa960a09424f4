// Package models defines data structures and domain types.
package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/j-veylop/authquota/internal/quota"
)

// secretKeys never leave the auth file: they are dropped while decoding and
// never reach the passthrough bag.
var secretKeys = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"id_token":      {},
	"api_key":       {},
	"cookie":        {},
	"password":      {},
	"client_secret": {},
}

// knownKeys are decoded into typed fields.
var knownKeys = map[string]struct{}{
	"id":             {},
	"name":           {},
	"type":           {},
	"provider":       {},
	"label":          {},
	"email":          {},
	"status":         {},
	"status_message": {},
	"disabled":       {},
	"unavailable":    {},
	"last_refresh":   {},
	"last_error":     {},
	"quota":          {},
}

// AuthFile is one stored provider credential as seen by the console.
// Provider-specific fields the console does not interpret are kept in Extra.
type AuthFile struct {
	LastRefresh   time.Time
	ModTime       time.Time
	LastError     *quota.LastError
	Quota         *quota.QuotaStatus
	Extra         map[string]json.RawMessage
	ID            string
	Name          string
	Provider      string
	Label         string
	Email         string
	Status        string
	StatusMessage string
	Path          string
	Disabled      bool
	Unavailable   bool
}

type rawAuthFile struct {
	LastError     *quota.LastError   `json:"last_error"`
	Quota         *quota.QuotaStatus `json:"quota"`
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Type          string             `json:"type"`
	Provider      string             `json:"provider"`
	Label         string             `json:"label"`
	Email         string             `json:"email"`
	Status        string             `json:"status"`
	StatusMessage string             `json:"status_message"`
	LastRefresh   json.RawMessage    `json:"last_refresh"`
	Disabled      bool               `json:"disabled"`
	Unavailable   bool               `json:"unavailable"`
}

// UnmarshalJSON decodes known fields and keeps the rest, minus secrets.
func (a *AuthFile) UnmarshalJSON(data []byte) error {
	var raw rawAuthFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode auth file: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode auth file fields: %w", err)
	}

	*a = AuthFile{
		ID:            raw.ID,
		Name:          raw.Name,
		Provider:      strings.ToLower(strings.TrimSpace(raw.Provider)),
		Label:         raw.Label,
		Email:         raw.Email,
		Status:        raw.Status,
		StatusMessage: raw.StatusMessage,
		Disabled:      raw.Disabled,
		Unavailable:   raw.Unavailable,
		LastError:     raw.LastError,
		Quota:         raw.Quota,
	}
	if a.Provider == "" {
		a.Provider = strings.ToLower(strings.TrimSpace(raw.Type))
	}
	if len(raw.LastRefresh) > 0 {
		a.LastRefresh = parseTimeField(raw.LastRefresh)
	}

	for key, value := range fields {
		if _, ok := knownKeys[key]; ok {
			continue
		}
		if _, ok := secretKeys[key]; ok {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[key] = value
	}
	return nil
}

// MarshalJSON writes the known fields followed by the passthrough bag.
func (a AuthFile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+12)
	for k, v := range a.Extra {
		out[k] = v
	}
	out["id"] = a.ID
	out["name"] = a.Name
	out["provider"] = a.Provider
	out["disabled"] = a.Disabled
	out["unavailable"] = a.Unavailable
	if a.Label != "" {
		out["label"] = a.Label
	}
	if a.Email != "" {
		out["email"] = a.Email
	}
	if a.Status != "" {
		out["status"] = a.Status
	}
	if a.StatusMessage != "" {
		out["status_message"] = a.StatusMessage
	}
	if !a.LastRefresh.IsZero() {
		out["last_refresh"] = a.LastRefresh.Format(time.RFC3339)
	}
	if a.LastError != nil {
		out["last_error"] = a.LastError
	}
	if a.Quota != nil {
		out["quota"] = a.Quota
	}
	return json.Marshal(out)
}

// LastErrorState implements quota.CredentialState.
func (a *AuthFile) LastErrorState() *quota.LastError {
	return a.LastError
}

// QuotaState implements quota.CredentialState.
func (a *AuthFile) QuotaState() *quota.QuotaStatus {
	return a.Quota
}

// Key identifies the auth file; payload envelopes reference it by this value.
func (a *AuthFile) Key() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// DisplayName returns the most human-friendly identifier available.
func (a *AuthFile) DisplayName() string {
	switch {
	case a.Label != "":
		return a.Label
	case a.Email != "":
		return a.Email
	default:
		return a.Key()
	}
}

// Clone returns a deep copy of the auth file.
func (a *AuthFile) Clone() AuthFile {
	clone := *a
	if a.LastError != nil {
		le := *a.LastError
		clone.LastError = &le
	}
	if a.Quota != nil {
		q := *a.Quota
		clone.Quota = &q
	}
	if a.Extra != nil {
		clone.Extra = make(map[string]json.RawMessage, len(a.Extra))
		maps.Copy(clone.Extra, a.Extra)
	}
	return clone
}

// parseTimeField attempts to parse a JSON time value as either ISO string or Unix timestamp.
func parseTimeField(data json.RawMessage) time.Time {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if t, ok := quota.ParseTime(strVal); ok {
			return t
		}
		return time.Time{}
	}

	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		if numVal > 1e12 {
			return time.UnixMilli(int64(numVal))
		}
		return time.Unix(int64(numVal), 0)
	}

	return time.Time{}
}
