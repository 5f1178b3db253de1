package rbac

type Role string
type Action string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

const (
	// ActionRead covers viewing documents and the public pages.
	ActionRead Action = "read"
	// ActionEditPosts covers the document edit screen, including content groups.
	ActionEditPosts Action = "edit_posts"
	// ActionManageOptions covers the settings page and the options-save endpoint.
	ActionManageOptions Action = "manage_options"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleEditor:
		return action == ActionRead || action == ActionEditPosts
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleEditor, RoleAdmin:
		return Role(role)
	default:
		return RoleViewer
	}
}
