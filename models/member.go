package models

// Member is one row of the public membership directory, flattened from
// a live billing subscription.
type Member struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Membership string `json:"membership"`
	Validity   string `json:"validity"`
	City       string `json:"city,omitempty"`
}
