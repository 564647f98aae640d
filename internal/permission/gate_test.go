package permission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-case-records/internal/model"
)

var allRoles = []model.Role{model.RoleUser, model.RoleAdmin, model.RoleSuperadmin, model.RoleWCPD}

func TestCanPerform_Matrix(t *testing.T) {
	const subject = "subject-1"
	other := Folder("someone-else")

	tests := []struct {
		action Action
		target Target
		allow  map[model.Role]bool
	}{
		{ActionAdd, other, map[model.Role]bool{model.RoleUser: true, model.RoleAdmin: true, model.RoleSuperadmin: true, model.RoleWCPD: true}},
		{ActionEdit, other, map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionEdit, Folder(subject), map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionEdit, Account(subject), map[model.Role]bool{model.RoleUser: true, model.RoleAdmin: true, model.RoleSuperadmin: true, model.RoleWCPD: true}},
		{ActionEdit, Account("another-account"), map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionArchive, other, map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionRestore, File(model.KindEblotter, subject), map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionDelete, Account("another-account"), map[model.Role]bool{model.RoleSuperadmin: true}},
		{ActionDelete, other, map[model.Role]bool{model.RoleSuperadmin: true}},
		{ActionChangeRole, Account("another-account"), map[model.Role]bool{model.RoleSuperadmin: true}},
		{ActionView, File(model.KindRegular, ""), map[model.Role]bool{model.RoleUser: true, model.RoleAdmin: true, model.RoleSuperadmin: true, model.RoleWCPD: true}},
		{ActionView, File(model.KindWomenChildren, ""), map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true, model.RoleWCPD: true}},
		{ActionView, Account(subject), map[model.Role]bool{model.RoleUser: true, model.RoleAdmin: true, model.RoleSuperadmin: true, model.RoleWCPD: true}},
		{ActionView, Account("another-account"), map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionView, Account(""), map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
		{ActionAudit, Target{}, map[model.Role]bool{model.RoleAdmin: true, model.RoleSuperadmin: true}},
	}

	for _, tt := range tests {
		for _, role := range allRoles {
			got := CanPerform(role, tt.action, tt.target, subject)
			assert.Equal(t, tt.allow[role], got, "role=%s action=%s target=%+v", role, tt.action, tt.target)
		}
	}
}

func TestCanPerform_DeleteOnlySuperadmin(t *testing.T) {
	targets := []Target{Folder("x"), File(model.KindExtraction, "x"), Account("x"), Account("subject"), Category()}
	for _, target := range targets {
		for _, role := range allRoles {
			assert.Equal(t, role == model.RoleSuperadmin, CanPerform(role, ActionDelete, target, "subject"))
		}
	}
}

func TestCanPerform_Unauthenticated(t *testing.T) {
	assert.False(t, CanPerform("", ActionAdd, Folder(""), "subject"))
	assert.False(t, CanPerform(model.RoleAdmin, ActionAdd, Folder(""), ""))
	assert.False(t, CanPerform("guest", ActionView, File(model.KindRegular, ""), "subject"))
	assert.False(t, CanPerform(model.RoleSuperadmin, Action("purge"), Folder(""), "subject"))
}

func TestCheck_DenialEnumeratesRules(t *testing.T) {
	session := model.Session{SubjectID: "u-1", Role: model.RoleUser}

	err := Check(session, ActionArchive, Folder("u-2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPermissionDenied))

	var denial *Denial
	require.True(t, errors.As(err, &denial))
	assert.Equal(t, ActionArchive, denial.Action)
	assert.Len(t, denial.Rules, 3)
	assert.Equal(t, Rules, denial.Rules)

	denial.Rules[0] = "mutated"
	assert.NotEqual(t, "mutated", Rules[0])
}

func TestCheck_SensitiveViewRule(t *testing.T) {
	err := Check(model.Session{SubjectID: "u-1", Role: model.RoleUser}, ActionView, File(model.KindWomenChildren, "u-9"))

	var denial *Denial
	require.True(t, errors.As(err, &denial))
	assert.Equal(t, []string{SensitiveRule}, denial.Rules)
}

func TestCheck_AccountViewRule(t *testing.T) {
	err := Check(model.Session{SubjectID: "u-1", Role: model.RoleWCPD}, ActionView, Account("u-2"))

	var denial *Denial
	require.True(t, errors.As(err, &denial))
	assert.Equal(t, []string{AccountViewRule}, denial.Rules)
}

func TestCheck_Allowed(t *testing.T) {
	assert.NoError(t, Check(model.Session{SubjectID: "u-1", Role: model.RoleAdmin}, ActionRestore, Folder("u-2")))
}
