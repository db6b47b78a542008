package models

import (
	"net/url"
	"strings"
	"time"

	dErrors "linkpulse/pkg/domain-errors"
	pstrings "linkpulse/pkg/platform/strings"
)

// MaxCodeLength bounds alias codes accepted from the creation side.
const MaxCodeLength = 64

// Alias maps a short code to its destination.
//
// Invariants:
//   - Code, Destination and CreatedAt are immutable after construction
//   - Tags are trimmed, lower-cased and de-duplicated
//   - TotalVisits >= UniqueVisitors >= 0; both only grow, and only through
//     the registry's RecordVisit
type Alias struct {
	Code           string
	Destination    string
	CreatedAt      time.Time
	ExpiresAt      *time.Time
	Tags           []string
	TotalVisits    int64
	UniqueVisitors int64
}

// IsExpired reports whether the alias expired strictly before now.
// An alias without ExpiresAt never expires.
func (a *Alias) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (a *Alias) Clone() *Alias {
	if a == nil {
		return nil
	}
	c := *a
	if a.ExpiresAt != nil {
		exp := *a.ExpiresAt
		c.ExpiresAt = &exp
	}
	c.Tags = append([]string(nil), a.Tags...)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

// HasTag reports membership of an already normalized tag.
func (a *Alias) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NewAlias validates a record handed over by the creation side. Counters start at zero.
func NewAlias(code, destination string, createdAt time.Time, expiresAt *time.Time, tags []string) (*Alias, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "alias code is required")
	}
	if len(code) > MaxCodeLength || strings.ContainsAny(code, "/?# ") {
		return nil, dErrors.New(dErrors.CodeValidation, "alias code is malformed")
	}
	u, err := url.Parse(strings.TrimSpace(destination))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "destination must be an absolute http(s) URL")
	}
	if createdAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "created_at is required")
	}
	if expiresAt != nil && !expiresAt.After(createdAt) {
		return nil, dErrors.New(dErrors.CodeValidation, "expires_at must be after created_at")
	}

	a := &Alias{
		Code:        code,
		Destination: u.String(),
		CreatedAt:   createdAt.UTC(),
		Tags:        pstrings.NormalizeSet(tags),
	}
	if expiresAt != nil {
		exp := expiresAt.UTC()
		a.ExpiresAt = &exp
	}
	return a, nil
}
