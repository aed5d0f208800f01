package area

import "github.com/serviceinfo/serviceinfo/internal/pkg/i18n"

// ServiceArea is a node in the geographic hierarchy. Children are derived from the
// parent references of other areas and never stored.
type ServiceArea struct {
	ID       int64     `json:"id"`
	Name     i18n.Text `json:"name"`
	ParentID *int64    `json:"parent_id,omitempty"`
}

// String returns the English name
func (a *ServiceArea) String() string {
	return a.Name.EN
}
