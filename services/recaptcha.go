package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"membership-portal/errors"
)

const defaultSiteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier proxies token checks to Google's siteverify API so
// the secret never reaches the browser.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewRecaptchaVerifier builds a verifier for the given secret key.
func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:    secret,
		verifyURL: defaultSiteVerifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Verify checks the client token and returns the upstream verdict.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (map[string]interface{}, error) {
	if token == "" {
		return nil, errors.E(errors.Invalid, "missing reCAPTCHA token")
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.E(errors.Internal, "error building siteverify request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.E(errors.Upstream, "error verifying reCAPTCHA", err)
	}
	defer resp.Body.Close()

	var verdict map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, errors.E(errors.Upstream, "error decoding siteverify response", err)
	}
	return verdict, nil
}
