package models

const (
	RoleGuest     = "guest"
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Principal - личность, подтвержденная при подключении
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

func AnonymousPrincipal() Principal {
	return Principal{Role: RoleGuest}
}

func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanModerate - право менять тему группы
func (p Principal) CanModerate() bool {
	return p.Role == RoleAdmin || p.Role == RoleModerator
}
