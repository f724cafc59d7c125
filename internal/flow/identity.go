package flow

// IdentitySource records how the current user was resolved.
type IdentitySource string

const (
	IdentityTelegramInit IdentitySource = "telegram-init-verified"
	IdentityURLToken     IdentitySource = "url-token-verified"
	IdentityCookieCached IdentitySource = "cookie-cached"
	IdentityAnonymous    IdentitySource = "anonymous"
)

// Identity is the resolved user. It is resolved once per controller and
// immutable afterwards. The zero value is anonymous.
type Identity struct {
	Source      IdentitySource `json:"source"`
	UserID      int64          `json:"user_id,omitempty"`
	Username    string         `json:"username,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
}

func (id Identity) Anonymous() bool {
	return id.UserID == 0
}

// userIDRef is what goes on the wire: nil (JSON null) for anonymous users.
func (id Identity) userIDRef() *int64 {
	if id.Anonymous() {
		return nil
	}
	v := id.UserID
	return &v
}
