package auth

import "strings"

// Claims carries the identity attributes asserted by the provider for one login.
// Only the subject is mandatory; the display attributes stay nil when the
// provider omits them so that downstream writes can distinguish "absent" from
// "empty".
type Claims struct {
	Subject         string  `json:"sub"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// HasSubject reports whether the claims identify a user at all.
func (c Claims) HasSubject() bool {
	return strings.TrimSpace(c.Subject) != ""
}
