package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	defaultZohoTokenURL = "https://accounts.zoho.in/oauth/v2/token"
	defaultZohoAPIURL   = "https://www.zohoapis.in/subscriptions/v1/subscriptions"
)

// Subscription is one row of the billing API's subscription list.
type Subscription struct {
	SubscriptionID    string `json:"subscription_id"`
	CustomerName      string `json:"customer_name"`
	Email             string `json:"email"`
	PlanName          string `json:"plan_name"`
	Status            string `json:"status"`
	CurrentTermEndsAt string `json:"current_term_ends_at"`
}

// ZohoClient talks to the Zoho Subscriptions API using a refresh-token
// OAuth flow. Access tokens are cached until shortly before expiry.
type ZohoClient struct {
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	apiURL       string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewZohoClient builds a client with the production endpoints.
func NewZohoClient(clientID, clientSecret, refreshToken string) *ZohoClient {
	return &ZohoClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		tokenURL:     defaultZohoTokenURL,
		apiURL:       defaultZohoAPIURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// SetEndpoints overrides the token and API base URLs.
func (z *ZohoClient) SetEndpoints(tokenURL, apiURL string) {
	z.tokenURL = tokenURL
	z.apiURL = apiURL
}

func (z *ZohoClient) token(ctx context.Context) (string, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.accessToken != "" && time.Now().Before(z.tokenExpiry) {
		return z.accessToken, nil
	}

	params := url.Values{
		"refresh_token": {z.refreshToken},
		"client_id":     {z.clientID},
		"client_secret": {z.clientSecret},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("error building token request: %w", err)
	}

	resp, err := z.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	var data struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("error decoding token response: %w", err)
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("token refresh returned no access token")
	}

	z.accessToken = data.AccessToken
	expiresIn := data.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	// Refresh a minute early to avoid racing the expiry.
	z.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)

	return z.accessToken, nil
}

func (z *ZohoClient) get(ctx context.Context, url string, out interface{}) error {
	token, err := z.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zoho request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zoho returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListSubscriptions fetches one page of subscriptions.
func (z *ZohoClient) ListSubscriptions(ctx context.Context, page int) ([]Subscription, error) {
	var data struct {
		Subscriptions []Subscription `json:"subscriptions"`
	}
	if err := z.get(ctx, fmt.Sprintf("%s?page=%d", z.apiURL, page), &data); err != nil {
		return nil, err
	}
	return data.Subscriptions, nil
}

// SubscriptionCity fetches the billing city for one subscription.
func (z *ZohoClient) SubscriptionCity(ctx context.Context, subscriptionID string) (string, error) {
	var data struct {
		Subscription struct {
			Customer struct {
				BillingAddress struct {
					City string `json:"city"`
				} `json:"billing_address"`
			} `json:"customer"`
		} `json:"subscription"`
	}
	if err := z.get(ctx, z.apiURL+"/"+subscriptionID, &data); err != nil {
		return "", err
	}
	return data.Subscription.Customer.BillingAddress.City, nil
}
