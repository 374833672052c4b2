package domain

// User is the normalized identity shared by all three roles. The remote API
// returns candidates and clients in different shapes; both collapse into this.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Role    Role   `json:"role,omitempty"`
	Company string `json:"company,omitempty"`
}
