package domain

// Principal is the verified identity of the caller for a single request.
// It is passed explicitly down the call chain and never stored.
type Principal struct {
	Subject string
	// UserID is zero until the subject has been resolved against the
	// identity service.
	UserID int64
}

// Resolved reports whether the subject has been mapped to a numeric identity.
func (p Principal) Resolved() bool {
	return p.UserID > 0
}
