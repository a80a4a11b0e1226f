package registry

// User is the person on whose behalf an operation runs.
type User struct {
	ID    string `json:"id"`
	Email string `json:"user_email"`
}

// GetID returns the user's id, or an empty string for a nil user.
// Anonymous callers reach storage and dispatch with a nil user.
func (user *User) GetID() string {
	if user == nil {
		return ""
	}
	return user.ID
}
