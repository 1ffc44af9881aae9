package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/atomhq/atom-agent/internal/directory"
	"github.com/atomhq/atom-agent/internal/hubspot"
	"github.com/atomhq/atom-agent/internal/logging"
)

// Source identifies where an attendee reference was resolved.
type Source string

const (
	SourceInternalUser   Source = "internal_user"
	SourceEmailDirect    Source = "email_direct"
	SourceGoogleContact  Source = "google_contact"
	SourceHubSpotContact Source = "hubspot_contact"
	SourceUnresolved     Source = "unresolved"
)

// ResolvedAttendee is the outcome of resolving one participant reference.
type ResolvedAttendee struct {
	InputRef string `json:"inputRef"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Source   Source `json:"source"`
	UserID   string `json:"userId,omitempty"`
}

// Resolved reports whether the reference produced a usable email address.
func (a *ResolvedAttendee) Resolved() bool {
	return a.Source != SourceUnresolved && a.Email != ""
}

// DirectoryLookup is the internal user database surface the resolver needs.
type DirectoryLookup interface {
	FindByEmail(ctx context.Context, email string) (*directory.User, error)
	FindByName(ctx context.Context, name string) ([]directory.User, error)
}

// ContactSearcher finds an email for a person's name in the organizer's
// Google contacts.
type ContactSearcher interface {
	FindEmailByName(ctx context.Context, name string) (string, error)
}

// CRMSearcher finds contacts in the CRM by name.
type CRMSearcher interface {
	SearchContactsByName(ctx context.Context, name string) ([]*hubspot.Contact, error)
}

// Resolver maps free-form attendee references to email addresses. Each
// collaborator may be nil, in which case its resolution step is skipped.
type Resolver struct {
	directory DirectoryLookup
	contacts  ContactSearcher
	crm       CRMSearcher
	logger    *slog.Logger
}

// New wires a resolver from its lookup sources.
func New(dir DirectoryLookup, contacts ContactSearcher, crm CRMSearcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{directory: dir, contacts: contacts, crm: crm, logger: logger}
}

// ResolveAttendees resolves each reference independently. References that
// look like email addresses check the internal user database first and fall
// through to direct use; names try internal users, then Google contacts,
// then the CRM. Unresolvable references come back with SourceUnresolved
// rather than failing the batch.
func (r *Resolver) ResolveAttendees(ctx context.Context, refs []string, requesterID string) []ResolvedAttendee {
	results := make([]ResolvedAttendee, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		var a ResolvedAttendee
		if strings.Contains(ref, "@") {
			a = r.resolveEmail(ctx, ref)
		} else {
			a = r.resolveName(ctx, ref)
		}
		if !a.Resolved() {
			r.logger.Warn("attendee reference not resolved",
				logging.Operation(logging.OpResolveAttendees),
				logging.Account(requesterID),
				slog.String("ref", ref))
		}
		results = append(results, a)
	}
	return results
}

func (r *Resolver) resolveEmail(ctx context.Context, email string) ResolvedAttendee {
	if r.directory != nil {
		u, err := r.directory.FindByEmail(ctx, email)
		if err == nil {
			return ResolvedAttendee{
				InputRef: email,
				Email:    u.Email,
				Name:     u.Name,
				Source:   SourceInternalUser,
				UserID:   u.ID.String(),
			}
		}
		if !errors.Is(err, directory.ErrNotFound) {
			r.logger.Warn("directory lookup failed, using email directly",
				logging.Operation(logging.OpResolveAttendees),
				logging.Err(err))
		}
	}
	// Not an internal user: use the address as given.
	r.logger.Debug("external attendee passed through",
		logging.Operation(logging.OpResolveAttendees),
		logging.Domain(email))
	return ResolvedAttendee{InputRef: email, Email: email, Source: SourceEmailDirect}
}

func (r *Resolver) resolveName(ctx context.Context, name string) ResolvedAttendee {
	if r.directory != nil {
		users, err := r.directory.FindByName(ctx, name)
		if err == nil {
			for _, u := range users {
				if u.Email != "" {
					return ResolvedAttendee{
						InputRef: name,
						Email:    u.Email,
						Name:     u.Name,
						Source:   SourceInternalUser,
						UserID:   u.ID.String(),
					}
				}
			}
		} else if !errors.Is(err, directory.ErrNotFound) {
			r.logger.Warn("directory lookup failed",
				logging.Operation(logging.OpResolveAttendees),
				logging.Err(err))
		}
	}

	if r.contacts != nil {
		email, err := r.contacts.FindEmailByName(ctx, name)
		if err != nil {
			r.logger.Warn("contact search failed",
				logging.Operation(logging.OpResolveAttendees),
				logging.Err(err))
		} else if email != "" {
			return ResolvedAttendee{InputRef: name, Email: email, Name: name, Source: SourceGoogleContact}
		}
	}

	if r.crm != nil {
		contacts, err := r.crm.SearchContactsByName(ctx, name)
		if err != nil {
			r.logger.Warn("crm search failed",
				logging.Operation(logging.OpResolveAttendees),
				logging.Err(err))
		} else if len(contacts) > 0 {
			c := contacts[0]
			return ResolvedAttendee{InputRef: name, Email: c.Email, Name: c.DisplayName(), Source: SourceHubSpotContact}
		}
	}

	return ResolvedAttendee{InputRef: name, Source: SourceUnresolved}
}

// ResolveEmails adapts the resolver for the scheduling orchestrator: it
// partitions references into resolved emails and unresolved inputs.
func (r *Resolver) ResolveEmails(ctx context.Context, refs []string, requesterID string) ([]string, []string, error) {
	attendees := r.ResolveAttendees(ctx, refs, requesterID)
	var resolved, unresolved []string
	seen := make(map[string]bool, len(attendees))
	for _, a := range attendees {
		if !a.Resolved() {
			unresolved = append(unresolved, a.InputRef)
			continue
		}
		if seen[a.Email] {
			continue
		}
		seen[a.Email] = true
		resolved = append(resolved, a.Email)
	}
	return resolved, unresolved, nil
}
