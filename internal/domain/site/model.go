package site

import (
	"context"
	"errors"
)

// ErrDomainMismatch is returned when the stored domain differs from the expected one
var ErrDomainMismatch = errors.New("site domain does not match")

// Site is the public domain the application is served from
type Site struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// Repository defines data access for the site record
type Repository interface {
	Get(ctx context.Context) (*Site, error)
	// ChangeDomain rewrites the domain from -> to, failing with ErrDomainMismatch
	ChangeDomain(ctx context.Context, from, to string) error
}
