package providers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/j-veylop/authquota/internal/quota"
)

type geminiBucket struct {
	ModelID           string          `json:"modelId"`
	TokenType         string          `json:"tokenType"`
	ResetTime         string          `json:"resetTime"`
	RemainingFraction json.RawMessage `json:"remainingFraction"`
	RemainingAmount   json.RawMessage `json:"remainingAmount"`
}

type geminiQuotaResponse struct {
	Buckets []geminiBucket `json:"buckets"`
}

// decodeGeminiCLI reads a retrieveUserQuota response. remainingAmount arrives
// as a decimal string.
func decodeGeminiCLI(raw []byte, _ time.Time) (Readings, error) {
	var resp geminiQuotaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Readings{}, err
	}

	buckets := make([]quota.RawBucket, 0, len(resp.Buckets))
	for _, b := range resp.Buckets {
		buckets = append(buckets, quota.RawBucket{
			ModelID:           strings.TrimSpace(b.ModelID),
			TokenType:         strings.TrimSpace(b.TokenType),
			RemainingFraction: quota.FractionPtr(rawValue(b.RemainingFraction)),
			RemainingAmount:   quota.AmountPtr(rawValue(b.RemainingAmount)),
			ResetTime:         strings.TrimSpace(b.ResetTime),
		})
	}
	return Readings{Buckets: buckets}, nil
}
