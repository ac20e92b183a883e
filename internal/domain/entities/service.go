package entities

import (
	"time"
)

// RequiredDocument describes one document a service expects from the citizen
type RequiredDocument struct {
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
}

// Service represents a bookable service offered by a department
type Service struct {
	ID                string             `json:"id" db:"id"`
	DepartmentID      string             `json:"department_id" db:"department_id"`
	Name              string             `json:"name" db:"name"`
	Description       string             `json:"description,omitempty" db:"description"`
	RequiresDocuments bool               `json:"requires_documents" db:"requires_documents"`
	RequiredDocuments []RequiredDocument `json:"required_documents"`
	// TokenConfig overrides the department config when set
	TokenConfig *TokenManagementConfig `json:"token_config,omitempty"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" db:"updated_at"`
}

// EffectiveTokenConfig resolves the token configuration for this service,
// preferring the service override over the department default
func (s *Service) EffectiveTokenConfig(d *Department) TokenManagementConfig {
	if s.TokenConfig != nil {
		return *s.TokenConfig
	}
	return d.TokenConfig
}

// NeedsDocuments reports whether a booking for this service starts in the
// document-collection stage
func (s *Service) NeedsDocuments() bool {
	return s.RequiresDocuments && len(s.RequiredDocuments) > 0
}

// MandatoryDocumentNames returns the names of all mandatory required documents
func (s *Service) MandatoryDocumentNames() []string {
	var names []string
	for _, rd := range s.RequiredDocuments {
		if rd.Mandatory {
			names = append(names, rd.Name)
		}
	}
	return names
}
