package contacts

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/atomhq/atom-agent/internal/google"
)

// Contact is a normalized People API entry.
type Contact struct {
	ResourceName string
	DisplayName  string
	EmailAddress string
	PhoneNumber  string
}

// Client wraps the Google People service.
type Client struct {
	svc     *people.Service
	account string
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a People client authenticated as the given account.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	httpClient, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	svc, err := people.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return &Client{svc: svc, account: account}, nil
}

// SearchContacts searches personal contacts, other contacts, and (for
// Workspace accounts) the directory. Sources that fail are skipped rather
// than failing the whole search.
func (c *Client) SearchContacts(ctx context.Context, query string, pageSize int) ([]*Contact, error) {
	if pageSize <= 0 {
		pageSize = 10
	}

	var allContacts []*Contact
	seenEmails := make(map[string]bool)
	queryLower := strings.ToLower(query)

	// Personal contacts support server-side search.
	resp, err := c.svc.People.SearchContacts().
		Query(query).
		ReadMask("names,emailAddresses,phoneNumbers").
		PageSize(int64(pageSize * 2)).
		Context(ctx).
		Do()
	if err == nil {
		for _, result := range resp.Results {
			if contact := extractContact(result.Person); contact != nil {
				if contact.EmailAddress != "" && !seenEmails[contact.EmailAddress] {
					seenEmails[contact.EmailAddress] = true
					allContacts = append(allContacts, contact)
				}
			}
		}
	}

	// Other contacts have no search query, so paginate and filter locally.
	pageToken := ""
	const maxPagesToFetch = 10
	for page := 0; page < maxPagesToFetch; page++ {
		otherReq := c.svc.OtherContacts.List().
			ReadMask("names,emailAddresses,phoneNumbers").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			otherReq = otherReq.PageToken(pageToken)
		}

		otherResp, err := otherReq.Do()
		if err != nil {
			break
		}

		for _, person := range otherResp.OtherContacts {
			contact := extractContact(person)
			if contact == nil || !matchesQuery(contact, queryLower) {
				continue
			}
			if contact.EmailAddress != "" && !seenEmails[contact.EmailAddress] {
				seenEmails[contact.EmailAddress] = true
				allContacts = append(allContacts, contact)
			}
		}

		pageToken = otherResp.NextPageToken
		if pageToken == "" || len(allContacts) >= pageSize*10 {
			break
		}
	}

	// Directory search only works for Workspace accounts; consumer accounts
	// fail here and are skipped.
	dirResp, err := c.svc.People.SearchDirectoryPeople().
		Query(query).
		ReadMask("names,emailAddresses,phoneNumbers").
		Sources("DIRECTORY_SOURCE_TYPE_DOMAIN_PROFILE").
		PageSize(int64(pageSize * 2)).
		Context(ctx).
		Do()
	if err == nil {
		for _, person := range dirResp.People {
			if contact := extractContact(person); contact != nil {
				if contact.EmailAddress != "" && !seenEmails[contact.EmailAddress] {
					seenEmails[contact.EmailAddress] = true
					allContacts = append(allContacts, contact)
				}
			}
		}
	}

	if len(allContacts) > pageSize {
		allContacts = allContacts[:pageSize]
	}

	return allContacts, nil
}

// FindEmailByName returns the email address of the best contact match for a
// person's name, or empty when nothing matches.
func (c *Client) FindEmailByName(ctx context.Context, name string) (string, error) {
	results, err := c.SearchContacts(ctx, name, 5)
	if err != nil {
		return "", err
	}
	nameLower := strings.ToLower(name)
	for _, contact := range results {
		if strings.Contains(strings.ToLower(contact.DisplayName), nameLower) && contact.EmailAddress != "" {
			return contact.EmailAddress, nil
		}
	}
	for _, contact := range results {
		if contact.EmailAddress != "" {
			return contact.EmailAddress, nil
		}
	}
	return "", nil
}

// extractContact normalizes a Person. Entries with no name, email, or phone
// are dropped.
func extractContact(person *people.Person) *Contact {
	if person == nil {
		return nil
	}

	contact := &Contact{
		ResourceName: person.ResourceName,
	}

	if len(person.Names) > 0 {
		contact.DisplayName = person.Names[0].DisplayName
	}
	if len(person.EmailAddresses) > 0 {
		contact.EmailAddress = person.EmailAddresses[0].Value
	}
	if len(person.PhoneNumbers) > 0 {
		contact.PhoneNumber = person.PhoneNumbers[0].Value
	}

	if contact.DisplayName == "" && contact.EmailAddress == "" && contact.PhoneNumber == "" {
		return nil
	}

	return contact
}

// matchesQuery checks if a contact matches the search query.
func matchesQuery(contact *Contact, queryLower string) bool {
	if queryLower == "" {
		return true
	}
	if strings.Contains(strings.ToLower(contact.DisplayName), queryLower) {
		return true
	}
	if strings.Contains(strings.ToLower(contact.EmailAddress), queryLower) {
		return true
	}
	if strings.Contains(contact.PhoneNumber, queryLower) {
		return true
	}
	return false
}
