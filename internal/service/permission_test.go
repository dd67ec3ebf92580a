package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toban/contribhub/internal/domain"
)

func TestPermissionGate_Matrix(t *testing.T) {
	gate := NewPermissionGate()

	tests := []struct {
		name      string
		requester domain.Role
		action    MemberAction
		target    domain.Role
		requested domain.Role
		isSelf    bool
		wantErr   error
	}{
		{"owner adds member", domain.RoleOwner, ActionAdd, "", "", false, nil},
		{"owner updates admin", domain.RoleOwner, ActionUpdate, domain.RoleAdmin, "", false, nil},
		{"owner removes admin", domain.RoleOwner, ActionRemove, domain.RoleAdmin, "", false, nil},
		{"owner promotes to owner", domain.RoleOwner, ActionUpdate, domain.RoleMember, domain.RoleOwner, false, nil},

		{"admin adds member", domain.RoleAdmin, ActionAdd, "", "", false, nil},
		{"admin updates member", domain.RoleAdmin, ActionUpdate, domain.RoleMember, "", false, nil},
		{"admin updates owner", domain.RoleAdmin, ActionUpdate, domain.RoleOwner, "", false, domain.ErrAdminModifyPrivileged},
		{"admin updates other admin", domain.RoleAdmin, ActionUpdate, domain.RoleAdmin, "", false, domain.ErrAdminModifyPrivileged},
		{"admin promotes member to admin", domain.RoleAdmin, ActionUpdate, domain.RoleMember, domain.RoleAdmin, false, domain.ErrAdminModifyPrivileged},
		{"admin removes owner", domain.RoleAdmin, ActionRemove, domain.RoleOwner, "", false, domain.ErrAdminRemovePrivileged},
		{"admin removes member", domain.RoleAdmin, ActionRemove, domain.RoleMember, "", false, nil},
		{"admin resends invite", domain.RoleAdmin, ActionResendInvite, "", "", false, nil},

		{"member views", domain.RoleMember, ActionView, "", "", false, nil},
		{"member adds", domain.RoleMember, ActionAdd, "", "", false, domain.ErrForbidden},
		{"member updates self", domain.RoleMember, ActionUpdate, domain.RoleMember, "", true, nil},
		{"member updates other", domain.RoleMember, ActionUpdate, domain.RoleMember, "", false, domain.ErrSelfUpdateOnly},
		{"member removes self", domain.RoleMember, ActionRemove, domain.RoleMember, "", true, nil},
		{"member removes other", domain.RoleMember, ActionRemove, domain.RoleViewer, "", false, domain.ErrSelfRemoveOnly},
		{"member resends invite", domain.RoleMember, ActionResendInvite, "", "", false, domain.ErrForbidden},

		{"viewer views", domain.RoleViewer, ActionView, "", "", false, nil},
		{"viewer adds", domain.RoleViewer, ActionAdd, "", "", false, domain.ErrForbidden},
		{"viewer updates other", domain.RoleViewer, ActionUpdate, domain.RoleMember, "", false, domain.ErrSelfUpdateOnly},
		{"viewer removes self", domain.RoleViewer, ActionRemove, domain.RoleViewer, "", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(tt.requester, tt.action, tt.target, tt.requested, tt.isSelf)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRole_IsPrivileged(t *testing.T) {
	assert.True(t, domain.RoleOwner.IsPrivileged())
	assert.True(t, domain.RoleAdmin.IsPrivileged())
	assert.False(t, domain.RoleMember.IsPrivileged())
	assert.False(t, domain.RoleViewer.IsPrivileged())
}
