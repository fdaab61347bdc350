package enums

// MemberRole is the role claim carried on access tokens.
type MemberRole string

const (
	MemberRoleAdmin     MemberRole = "admin"
	MemberRoleOperator  MemberRole = "operator"
	MemberRoleInspector MemberRole = "inspector"
	MemberRoleViewer    MemberRole = "viewer"
	// MemberRoleSystem marks writes performed by background jobs. Tokens never
	// carry it.
	MemberRoleSystem MemberRole = "system"
)

func (m MemberRole) String() string { return string(m) }

func (m MemberRole) IsValid() bool {
	switch m {
	case MemberRoleAdmin, MemberRoleOperator, MemberRoleInspector, MemberRoleViewer, MemberRoleSystem:
		return true
	}
	return false
}
