package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"go-case-records/internal/model"
	"go-case-records/internal/normalize"
	"go-case-records/internal/permission"
	"go-case-records/internal/repository"
	"go-case-records/pkg/apierror"
)

type UserService struct {
	users    userStore
	sessions sessionStore
	names    *NameResolver
	audit    *AuditService
}

func NewUserService(users userStore, sessions sessionStore, names *NameResolver, audit *AuditService) *UserService {
	return &UserService{users: users, sessions: sessions, names: names, audit: audit}
}

// List returns every account. Only admins and superadmins may list.
func (s *UserService) List(ctx context.Context, session model.Session) ([]model.UserView, error) {
	if err := permission.Check(session, permission.ActionView, permission.Account("")); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, normalize.User(u))
	}
	return views, nil
}

// Get returns one account: the caller's own, or any account for admins.
func (s *UserService) Get(ctx context.Context, session model.Session, id string) (model.UserView, error) {
	if err := permission.Check(session, permission.ActionView, permission.Account(id)); err != nil {
		return model.UserView{}, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.UserView{}, err
	}
	return normalize.User(user), nil
}

// Register creates an account. Admins may create regular and WCPD accounts;
// creating an admin or superadmin needs the role-change right.
func (s *UserService) Register(ctx context.Context, session model.Session, req model.RegisterRequest) (model.UserView, error) {
	if err := permission.Check(session, permission.ActionEdit, permission.Account("")); err != nil {
		return model.UserView{}, err
	}

	role := model.RoleUser
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := model.ParseRole(req.Role)
		if !ok {
			return model.UserView{}, apierror.Validation("invalid role", req.Role)
		}
		role = parsed
	}
	if role == model.RoleAdmin || role == model.RoleSuperadmin {
		if err := permission.Check(session, permission.ActionChangeRole, permission.Account("")); err != nil {
			return model.UserView{}, err
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.UserView{}, apierror.Validation("name is required", "")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return model.UserView{}, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return model.UserView{}, err
	}

	id := uuid.NewString()
	user, err := s.users.Create(ctx, model.User{
		ID:           id,
		AuthSubject:  id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	s.audit.Log(ctx, "user.register", session, "user/"+id, nil, map[string]any{"email": email, "role": role}, err)
	if err != nil {
		return model.UserView{}, err
	}
	return normalize.User(user), nil
}

// UpdateProfile edits name, email or password. Users may edit their own
// account; admins may edit any.
func (s *UserService) UpdateProfile(ctx context.Context, session model.Session, id string, req model.UpdateProfileRequest) (model.UserView, error) {
	if err := permission.Check(session, permission.ActionEdit, permission.Account(id)); err != nil {
		return model.UserView{}, err
	}

	var change repository.ProfileUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.UserView{}, apierror.Validation("name cannot be empty", "")
		}
		change.Name = &name
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return model.UserView{}, err
		}
		change.Email = &email
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return model.UserView{}, err
		}
		change.PasswordHash = &hash
	}

	user, err := s.users.UpdateProfile(ctx, id, change)
	if err != nil {
		return model.UserView{}, err
	}
	s.names.Forget(id)
	return normalize.User(user), nil
}

func (s *UserService) ChangeRole(ctx context.Context, session model.Session, id string, rawRole string) (model.UserView, error) {
	if err := permission.Check(session, permission.ActionChangeRole, permission.Account(id)); err != nil {
		return model.UserView{}, err
	}
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return model.UserView{}, apierror.Validation("invalid role", rawRole)
	}
	if id == session.SubjectID && role != model.RoleSuperadmin {
		return model.UserView{}, apierror.Validation("superadmins cannot demote themselves", "")
	}

	before, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.UserView{}, err
	}

	user, err := s.users.UpdateRole(ctx, id, role)
	s.audit.Log(ctx, "user.change_role", session, "user/"+id,
		map[string]any{"role": before.Role}, map[string]any{"role": role}, err)
	if err != nil {
		return model.UserView{}, err
	}
	return normalize.User(user), nil
}

// Delete removes an account and ends its sessions. Superadmins cannot
// delete themselves.
func (s *UserService) Delete(ctx context.Context, session model.Session, id string) error {
	if err := permission.Check(session, permission.ActionDelete, permission.Account(id)); err != nil {
		return err
	}
	if id == session.SubjectID {
		return apierror.Validation("you cannot delete your own account", "")
	}

	before, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sessions.RevokeAllForUser(ctx, id); err != nil {
		return err
	}
	err = s.users.Delete(ctx, id)
	s.audit.Log(ctx, "user.delete", session, "user/"+id, normalize.User(before), nil, err)
	if err != nil {
		return err
	}
	s.names.Forget(id)
	return nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) {
		return "", apierror.Validation("invalid email address", raw)
	}
	return strings.ToLower(addr.Address), nil
}
