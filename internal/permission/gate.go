// Package permission decides whether a subject may perform an action.
// The rule set is fixed; it is evaluated in the service layer before any
// record or blob store call is made.
package permission

import (
	"fmt"

	"go-case-records/internal/model"
)

type Action string

const (
	ActionAdd        Action = "add"
	ActionEdit       Action = "edit"
	ActionArchive    Action = "archive"
	ActionRestore    Action = "restore"
	ActionDelete     Action = "delete"
	ActionChangeRole Action = "change_role"
	ActionView       Action = "view"
	ActionAudit      Action = "audit"
)

type TargetKind int

const (
	TargetFolder TargetKind = iota + 1
	TargetFile
	TargetCategory
	TargetAccount
)

// Target is what the action is applied to. OwnerID is the account id for
// TargetAccount and the creator id otherwise. Sensitive marks
// women-and-children records.
type Target struct {
	Kind      TargetKind
	OwnerID   string
	Sensitive bool
}

func Folder(ownerID string) Target { return Target{Kind: TargetFolder, OwnerID: ownerID} }
func Account(userID string) Target { return Target{Kind: TargetAccount, OwnerID: userID} }
func Category() Target { return Target{Kind: TargetCategory} }

func File(kind model.FileKind, ownerID string) Target {
	return Target{Kind: TargetFile, OwnerID: ownerID, Sensitive: kind == model.KindWomenChildren}
}

// Rules is the explanation shown with every mutation denial.
var Rules = []string{
	"Only admins and superadmins can edit, archive or restore records.",
	"Regular users can edit only their own account.",
	"Only superadmins can delete accounts or change roles.",
}

// SensitiveRule is the explanation shown when a women-and-children record is denied.
const SensitiveRule = "Women and children protection records are visible to WCPD officers, admins and superadmins only."

// AccountViewRule is the explanation shown when another account's details are denied.
const AccountViewRule = "Only admins and superadmins can view other accounts."

func isAdmin(role model.Role) bool {
	return role == model.RoleAdmin || role == model.RoleSuperadmin
}

// CanPerform evaluates the rule set. An empty role or subject is never allowed.
func CanPerform(role model.Role, action Action, target Target, subjectID string) bool {
	if _, ok := model.ParseRole(string(role)); !ok || subjectID == "" {
		return false
	}

	switch action {
	case ActionAdd:
		return true
	case ActionView:
		if target.Kind == TargetAccount {
			return isAdmin(role) || target.OwnerID == subjectID
		}
		if target.Sensitive {
			return role == model.RoleWCPD || isAdmin(role)
		}
		return true
	case ActionEdit:
		if isAdmin(role) {
			return true
		}
		return target.Kind == TargetAccount && target.OwnerID == subjectID
	case ActionArchive, ActionRestore, ActionAudit:
		return isAdmin(role)
	case ActionDelete, ActionChangeRole:
		return role == model.RoleSuperadmin
	default:
		return false
	}
}

// Denial is returned when the gate refuses an action.
type Denial struct {
	Action Action
	Role   model.Role
	Rules  []string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("permission denied: role %q cannot %s", d.Role, d.Action)
}

func (d *Denial) Unwrap() error {
	return model.ErrPermissionDenied
}

// Check is CanPerform returning a *Denial instead of false.
func Check(session model.Session, action Action, target Target) error {
	if CanPerform(session.Role, action, target, session.SubjectID) {
		return nil
	}

	rules := Rules
	switch {
	case action == ActionView && target.Kind == TargetAccount:
		rules = []string{AccountViewRule}
	case action == ActionView && target.Sensitive:
		rules = []string{SensitiveRule}
	}

	return &Denial{Action: action, Role: session.Role, Rules: append([]string(nil), rules...)}
}
