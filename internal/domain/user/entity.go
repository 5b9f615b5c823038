package user

// User represents a user entity in the system.
// A zero ID means the user has not been persisted yet.
type User struct {
	ID    int64  // ID is assigned by the store on insert and never changes
	Name  string // Name is the display name of the user
	Email string // Email is stored as given, no format or uniqueness checks
}

// IsNew reports whether the user has not been assigned an ID yet.
func (u *User) IsNew() bool {
	return u.ID == 0
}
