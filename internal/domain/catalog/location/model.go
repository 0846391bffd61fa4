// Package location provides the Location catalog: the warehouses,
// stores and staging areas stock balances are kept per.
package location

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Location is one physical or logical place stock sits in.
type Location struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the unique short identifier (e.g. MAIN, STAGING)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Address is the optional physical address
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates the location can appear on new movements
	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a Location with required fields.
func New(code, name string) *Location {
	return &Location{
		ID:       id.New(),
		Code:     code,
		Name:     name,
		IsActive: true,
	}
}

// Validate checks invariants before persistence.
func (l *Location) Validate(ctx context.Context) error {
	if strings.TrimSpace(l.Code) == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if strings.TrimSpace(l.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
