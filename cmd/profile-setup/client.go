package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// apiClient talks to the profile API on behalf of a signed-in user.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type profileSummary struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	DisplayName   *string `json:"displayName"`
	MonthlyBudget float64 `json:"monthlyBudget"`
	Currency      string  `json:"currency"`
	Address       struct {
		State *string `json:"state"`
		City  *string `json:"city"`
	} `json:"address"`
	OnboardingCompleted bool `json:"onboardingCompleted"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *apiClient) sync() (*profileSummary, error) {
	return c.do(http.MethodPost, "/api/v1/auth/sync", nil)
}

type locationUpdate struct {
	City   string
	State  string
	Budget float64
}

func (c *apiClient) updateLocation(u locationUpdate) (*profileSummary, error) {
	payload := map[string]interface{}{
		"address": map[string]string{
			"city":  u.City,
			"state": u.State,
		},
		"monthlyBudget": u.Budget,
	}
	return c.do(http.MethodPut, "/api/v1/users/me", payload)
}

func (c *apiClient) do(method, path string, payload interface{}) (*profileSummary, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API not reachable: %w", err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("unexpected response (%d)", resp.StatusCode)
	}
	if !env.Success {
		return nil, fmt.Errorf("%s (%d)", env.Message, resp.StatusCode)
	}

	var profile profileSummary
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, fmt.Errorf("unexpected profile payload: %w", err)
	}
	return &profile, nil
}
