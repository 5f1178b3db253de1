package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "viewer read", role: RoleViewer, action: ActionRead, allow: true},
		{name: "viewer edit posts", role: RoleViewer, action: ActionEditPosts, allow: false},
		{name: "editor edit posts", role: RoleEditor, action: ActionEditPosts, allow: true},
		{name: "editor manage options", role: RoleEditor, action: ActionManageOptions, allow: false},
		{name: "admin manage options", role: RoleAdmin, action: ActionManageOptions, allow: true},
		{name: "unknown role", role: Role("ghost"), action: ActionRead, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("admin"); got != RoleAdmin {
		t.Fatalf("Normalize(admin) = %q", got)
	}
	if got := Normalize("commenter"); got != RoleViewer {
		t.Fatalf("expected unknown role to normalize to viewer, got %q", got)
	}
}
