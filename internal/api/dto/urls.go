package dto

import (
	"fmt"
	"strings"
)

// URLs builds absolute resource URLs for API responses
type URLs struct {
	base string
}

// NewURLs creates a URL builder rooted at baseURL
func NewURLs(baseURL string) URLs {
	return URLs{base: strings.TrimRight(baseURL, "/")}
}

func (u URLs) resource(kind string, id int64) string {
	return fmt.Sprintf("%s/api/%s/%d/", u.base, kind, id)
}

func (u URLs) Provider(id int64) string     { return u.resource("providers", id) }
func (u URLs) ProviderType(id int64) string { return u.resource("providertypes", id) }
func (u URLs) ServiceType(id int64) string  { return u.resource("servicetypes", id) }
func (u URLs) ServiceArea(id int64) string  { return u.resource("serviceareas", id) }
func (u URLs) Service(id int64) string      { return u.resource("services", id) }
func (u URLs) User(id int64) string         { return u.resource("users", id) }

// Activation returns the activation link for key
func (u URLs) Activation(key string) string {
	return u.base + "/api/activate/" + key
}
