package types

// Role is the authorization level of a studio member.
type Role string

// Supported roles.
const (
	RoleMaster Role = "master"
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
)

// User represents a studio member.
// It contains identity, contact details, and role metadata.
type User struct {
	// ID is the login identifier chosen by the user. It is unique and
	// never changes after creation.
	ID string `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address, used for temporary passwords.
	Email string `json:"email" db:"email"`

	// Phone is the user's contact phone number.
	Phone string `json:"phone" db:"phone"`

	// Address is the base postal address returned by address search.
	Address string `json:"address" db:"address"`

	// DetailAddress is the free-form remainder of the address.
	DetailAddress string `json:"detailAddress" db:"detail_address"`

	// Avatar is the URI of the user's profile image.
	Avatar string `json:"avatar" db:"avatar_url"`

	// Role indicates the user's authorization level (master, admin, user).
	Role Role `json:"role" db:"role"`
}

// Author is the identity snapshot stamped onto authored records.
type Author struct {
	ID     string
	Name   string
	Avatar string
}

// AsAuthor returns the author snapshot of the user.
func (u User) AsAuthor() Author {
	return Author{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
