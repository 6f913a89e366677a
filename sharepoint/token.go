package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soddigital/financeiro_backend/utils"
)

// Tokens are refreshed this long before the provider-issued expiry so a
// request never starts with a token about to lapse mid-flight.
const tokenExpirySafetyMargin = 300 * time.Second

// Process-wide single-slot token cache, shared by every client the
// handlers construct. Deliberately unsynchronized: concurrent requests
// racing past an expired check each perform a redundant exchange and the
// last write wins (the provider is idempotent).
var (
	cachedToken string
	tokenExpiry time.Time
)

// AccessToken returns a valid bearer token, reusing the cached one until
// its safety-margin expiry passes. A fresh client-credentials exchange
// overwrites the slot.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if cachedToken != "" && time.Now().Before(tokenExpiry) {
		return cachedToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", "https://graph.microsoft.com/.default")

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.authBase, url.PathEscape(c.tenantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", utils.WrapAppError(utils.KindAuth, err, "building token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", utils.WrapAppError(utils.KindAuth, err, "token exchange request")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", utils.NewAppError(utils.KindAuth, "token exchange failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", utils.WrapAppError(utils.KindAuth, err, "decoding token response")
	}
	if parsed.AccessToken == "" {
		return "", utils.NewAppError(utils.KindAuth, "token response contained no access_token")
	}

	cachedToken = parsed.AccessToken
	tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - tokenExpirySafetyMargin)
	return cachedToken, nil
}
