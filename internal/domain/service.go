package domain

// Service is a named, reusable bundle of document templates.
// It is read-only input to task creation.
type Service struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	TemplateIDs []string `json:"template_ids" yaml:"template_ids"`
	IsActive    bool     `json:"is_active" yaml:"is_active"`
}
