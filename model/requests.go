package model

// Request is a snapshot of the purchase request that triggered a dispatch.
// The dispatch engine reads it but never mutates it.
type Request struct {
	ID             string
	RequestNumber  string
	CustomerID     string
	CustomerName   string
	CustomerEmail  string
	LastModifiedBy string
}

// Admin is an administrator account eligible to receive admin-facing
// notifications. Only active admins are included in fan-outs.
type Admin struct {
	ID       string
	Username string
	Email    string
}
