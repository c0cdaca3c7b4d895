package lessons

// Caller is the identity a request carries. A nil *Caller means the request
// is anonymous.
type Caller struct {
	ID   string
	Role string
}

// ReviewSummary is the caller's own review as surfaced in UserContext.
type ReviewSummary struct {
	ID      string `json:"id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// UserContext is the caller-specific view attached to a lesson response.
// Absent for anonymous callers.
type UserContext struct {
	IsPurchased bool           `json:"is_purchased"`
	HasAccess   bool           `json:"has_access"`
	Review      *ReviewSummary `json:"review,omitempty"`
}
