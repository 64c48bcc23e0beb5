package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/internal/pkg/env"
)

const defaultLemonAPIBaseURL = "https://api.lemonsqueezy.com/v1"

// ErrLemonNotConfigured signals missing API credentials; callers surface this
// as a server configuration error, not an upstream failure.
var ErrLemonNotConfigured = errors.New("LEMON_API_KEY/LEMON_STORE_ID are not configured")

// LemonClient talks to the Lemon Squeezy JSON:API. Its only use in this
// system is creating hosted checkout sessions; all inbound state arrives via
// webhooks.
type LemonClient struct {
	APIKey  string
	StoreID string

	APIBaseURL  string
	RedirectURL string

	HTTPClient *http.Client
}

// NewLemonClientFromEnv builds a client from environment configuration.
func NewLemonClientFromEnv() *LemonClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURL := strings.TrimSpace(env.GetEnv("LEMON_REDIRECT_URL", ""))
	if redirectURL == "" && base != "" {
		redirectURL = base + "/dashboard"
	}

	return &LemonClient{
		APIKey:      strings.TrimSpace(env.GetEnv("LEMON_API_KEY", "")),
		StoreID:     strings.TrimSpace(env.GetEnv("LEMON_STORE_ID", "")),
		APIBaseURL:  strings.TrimSpace(env.GetEnv("LEMON_API_BASE_URL", defaultLemonAPIBaseURL)),
		RedirectURL: redirectURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckout creates a hosted checkout session for the plan, pre-filled
// with the user's email and a custom field carrying the internal user id so
// the webhook can resolve identity without the processor's customer mapping.
// Returns the hosted checkout URL.
func (c *LemonClient) CreateCheckout(ctx context.Context, plan *models.SubscriptionPlan, user *models.User) (string, error) {
	if c.APIKey == "" || c.StoreID == "" {
		return "", ErrLemonNotConfigured
	}
	if plan == nil || !plan.IsCheckoutConfigured() {
		return "", errors.New("plan is not configured for checkout")
	}

	payload := map[string]any{
		"data": map[string]any{
			"type": "checkouts",
			"attributes": map[string]any{
				"product_options": map[string]any{
					"redirect_url":     c.RedirectURL,
					"enabled_variants": []string{plan.LemonVariantID},
				},
				"checkout_options": map[string]any{
					"embed":      false,
					"media":      false,
					"skip_trial": true,
				},
				"checkout_data": map[string]any{
					"email": user.Email,
					"custom": map[string]string{
						"user_id": strconv.FormatUint(uint64(user.ID), 10),
					},
				},
			},
			"relationships": map[string]any{
				"store": map[string]any{
					"data": map[string]string{"type": "stores", "id": c.StoreID},
				},
				"variant": map[string]any{
					"data": map[string]string{"type": "variants", "id": plan.LemonVariantID},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + "/checkouts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("lemonsqueezy checkout creation failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Data struct {
			Attributes struct {
				URL string `json:"url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Data.Attributes.URL) == "" {
		return "", errors.New("lemonsqueezy checkout response missing url")
	}
	return out.Data.Attributes.URL, nil
}
