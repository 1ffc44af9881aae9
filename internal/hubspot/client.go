package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.hubapi.com"

// Contact is a normalized HubSpot CRM contact.
type Contact struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// DisplayName returns the contact's full name.
func (c *Contact) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Client talks to the HubSpot CRM v3 contacts API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client with the given private app token. An empty token
// yields a client whose searches fail with a configuration error.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether an API token is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties"`
	Limit        int           `json:"limit"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchResponse struct {
	Results []struct {
		ID         string `json:"id"`
		Properties struct {
			Email     string `json:"email"`
			FirstName string `json:"firstname"`
			LastName  string `json:"lastname"`
		} `json:"properties"`
	} `json:"results"`
}

// SearchContactsByName looks a contact up by first or last name and returns
// matches that carry an email address.
func (c *Client) SearchContactsByName(ctx context.Context, name string) ([]*Contact, error) {
	return c.search(ctx, searchRequest{
		FilterGroups: []filterGroup{
			{Filters: []filter{{PropertyName: "firstname", Operator: "CONTAINS_TOKEN", Value: name}}},
			{Filters: []filter{{PropertyName: "lastname", Operator: "CONTAINS_TOKEN", Value: name}}},
		},
		Properties: []string{"email", "firstname", "lastname"},
		Limit:      10,
	})
}

func (c *Client) search(ctx context.Context, sr searchRequest) ([]*Contact, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("hubspot client misconfigured: no API token")
	}

	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	url := c.baseURL + "/crm/v3/objects/contacts/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("hubspot error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	contacts := make([]*Contact, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Properties.Email == "" {
			continue
		}
		contacts = append(contacts, &Contact{
			ID:        r.ID,
			Email:     r.Properties.Email,
			FirstName: r.Properties.FirstName,
			LastName:  r.Properties.LastName,
		})
	}
	return contacts, nil
}
