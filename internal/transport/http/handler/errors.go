package handler

const (
	errInternalServer     = "Internal server error"
	errTokenInvalid       = "Invalid or expired token"
	errEmailSendFailed    = "Failed to send verification email"
	errUserNotFound       = "User not found"
	errPriceNotConfigured = "Stripe price not configured"
)
