// Package entitlements reads subscription state from RevenueCat.
package entitlements

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/capsule-closet/capsule-be/internal/models"
)

// DefaultBaseURL is the RevenueCat REST endpoint.
const DefaultBaseURL = "https://api.revenuecat.com"

// Client implements credits.EntitlementSource against the RevenueCat v1 API.
// App user ids are the decimal user id.
type Client struct {
	base   string
	apiKey string
	h      *http.Client
	now    func() time.Time
}

// NewClient builds a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		h:      httpClient,
		now:    time.Now,
	}
}

type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]entitlement `json:"entitlements"`
	} `json:"subscriber"`
}

type entitlement struct {
	ExpiresDate       *time.Time `json:"expires_date"`
	ProductIdentifier string     `json:"product_identifier"`
}

// ActiveEntitlements returns the identifiers of entitlements that never
// expire or expire in the future, sorted.
func (c *Client) ActiveEntitlements(ctx context.Context, userID int64) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v1/subscribers/%s", c.base, url.PathEscape(models.SubjectID(userID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revenuecat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("revenuecat http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body subscriberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode subscriber: %w", err)
	}

	now := c.now()
	active := make([]string, 0, len(body.Subscriber.Entitlements))
	for id, e := range body.Subscriber.Entitlements {
		if e.ExpiresDate == nil || e.ExpiresDate.After(now) {
			active = append(active, id)
		}
	}
	sort.Strings(active)
	return active, nil
}
