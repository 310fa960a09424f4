package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/j-veylop/authquota/internal/quota"
)

// antigravityQuota holds one quota shape. The same fields appear nested under
// quotaInfo/quota_info and flattened on the model entry itself.
type antigravityQuota struct {
	RemainingFraction      json.RawMessage `json:"remainingFraction"`
	RemainingFractionSnake json.RawMessage `json:"remaining_fraction"`
	Remaining              json.RawMessage `json:"remaining"`
	ResetTime              string          `json:"resetTime"`
	ResetTimeSnake         string          `json:"reset_time"`
}

// remaining returns the first field that normalizes to a fraction.
func (q *antigravityQuota) remaining() any {
	for _, raw := range []json.RawMessage{q.RemainingFraction, q.RemainingFractionSnake, q.Remaining} {
		v := rawValue(raw)
		if quota.FractionPtr(v) != nil {
			return v
		}
	}
	return nil
}

func (q *antigravityQuota) resetTime() string {
	return firstString(q.ResetTime, q.ResetTimeSnake)
}

type antigravityModel struct {
	QuotaInfo      *antigravityQuota `json:"quotaInfo"`
	QuotaInfoSnake *antigravityQuota `json:"quota_info"`
	DisplayName    string            `json:"displayName"`
	DisplaySnake   string            `json:"display_name"`
	Label          string            `json:"label"`
	antigravityQuota
}

// sources lists quota shapes in precedence order: structured before flat.
func (m *antigravityModel) sources() []*antigravityQuota {
	var out []*antigravityQuota
	if m.QuotaInfo != nil {
		out = append(out, m.QuotaInfo)
	}
	if m.QuotaInfoSnake != nil {
		out = append(out, m.QuotaInfoSnake)
	}
	return append(out, &m.antigravityQuota)
}

func (m *antigravityModel) entry(modelID string) quota.ProviderEntry {
	e := quota.ProviderEntry{
		ModelID:     modelID,
		DisplayName: firstString(m.DisplayName, m.DisplaySnake, m.Label),
	}
	for _, src := range m.sources() {
		if e.Remaining == nil {
			e.Remaining = src.remaining()
		}
		if e.ResetTime == "" {
			e.ResetTime = src.resetTime()
		}
	}
	return e
}

type antigravityClientConfig struct {
	ModelOrAlias *struct {
		Model string `json:"model"`
	} `json:"modelOrAlias"`
	QuotaInfo *antigravityQuota `json:"quotaInfo"`
	Label     string            `json:"label"`
}

type antigravityPayload struct {
	UserStatus *struct {
		CascadeModelConfigData *struct {
			ClientModelConfigs []antigravityClientConfig `json:"clientModelConfigs"`
		} `json:"cascadeModelConfigData"`
	} `json:"userStatus"`
	Models json.RawMessage `json:"models"`
}

// decodeAntigravity accepts the fetchAvailableModels shape
// {"models": {"<id>": {...}}}, keeping model order as sent, and the
// userStatus shape with clientModelConfigs.
func decodeAntigravity(raw []byte, _ time.Time) (Readings, error) {
	var payload antigravityPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Readings{}, err
	}

	if len(bytes.TrimSpace(payload.Models)) > 0 && !bytes.Equal(bytes.TrimSpace(payload.Models), []byte("null")) {
		entries, err := decodeOrderedModels(payload.Models)
		if err != nil {
			return Readings{}, err
		}
		return Readings{Entries: entries}, nil
	}

	var entries []quota.ProviderEntry
	if payload.UserStatus != nil && payload.UserStatus.CascadeModelConfigData != nil {
		for _, cfg := range payload.UserStatus.CascadeModelConfigData.ClientModelConfigs {
			id := cfg.Label
			if cfg.ModelOrAlias != nil && cfg.ModelOrAlias.Model != "" {
				id = cfg.ModelOrAlias.Model
			}
			e := quota.ProviderEntry{ModelID: id, DisplayName: cfg.Label}
			if cfg.QuotaInfo != nil {
				e.Remaining = cfg.QuotaInfo.remaining()
				e.ResetTime = cfg.QuotaInfo.resetTime()
			}
			entries = append(entries, e)
		}
	}
	return Readings{Entries: entries}, nil
}

// decodeOrderedModels walks the models object token by token so entries keep
// the order the provider sent them in.
func decodeOrderedModels(raw json.RawMessage) ([]quota.ProviderEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("models must be an object, got %v", tok)
	}

	var entries []quota.ProviderEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var m antigravityModel
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("model %s: %w", key, err)
		}
		entries = append(entries, m.entry(key))
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}
