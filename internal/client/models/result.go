package models

// AuthResult is the uniform outcome of every remote session operation.
// Failures are reported through Success=false and a human-readable Message,
// never as Go errors.
type AuthResult struct {
	Success bool
	Message string
	User    *User
}

// Failed builds an unsuccessful result carrying msg.
func Failed(msg string) AuthResult {
	return AuthResult{Success: false, Message: msg}
}
