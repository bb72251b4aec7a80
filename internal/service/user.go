package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/notify"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/cryptox"
	"github.com/DSAshv/urbanAssist/pkg/idx"
)

// UserService backs the admin user directory and self-service profile edits.
type UserService struct {
	Store    store.Store
	Notifier Notifier
}

// List returns every user, newest first. Handlers project to PublicUser.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
	Role      domain.Role
}

// Create provisions an account on behalf of an admin. Unlike Register it can
// set the role directly and does not log the new account in.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	reg := RegisterInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	}
	if err := reg.validate(); err != nil {
		return domain.User{}, err
	}

	if in.Role == "" {
		in.Role = domain.RoleUser
	} else if !domain.ValidRole(in.Role) {
		return domain.User{}, invalidf("unknown role %q", in.Role)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.Notifier.Dispatch(notify.Notification{
		Email:   u.Email,
		Subject: "Your UrbanAssist account",
		Body:    "Hi " + u.FirstName + ", an account has been created for you by an administrator.",
	})

	return u, nil
}

// AdminUpdate is the admin-side mutation: role changes and suspension. Nil
// pointers leave the corresponding state untouched.
type AdminUpdate struct {
	Role             domain.Role
	Suspended        *bool
	SuspensionReason string
}

// Update applies an admin-side change to a user. Because tokens carry no
// role or active state, a role change or suspension takes effect on the
// target's very next request.
func (s *UserService) Update(ctx context.Context, id string, upd AdminUpdate) (domain.User, error) {
	if upd.Role != "" && !domain.ValidRole(upd.Role) {
		return domain.User{}, invalidf("unknown role %q", upd.Role)
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if upd.Role != "" {
			if err := tx.Users().UpdateRole(ctx, id, upd.Role); err != nil {
				return err
			}
		}
		if upd.Suspended != nil {
			if err := tx.Users().SetSuspension(ctx, id, *upd.Suspended, upd.SuspensionReason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	return s.Store.Users().GetUserByID(ctx, id)
}

// UpdateProfile applies a self-service edit. Empty fields keep their current
// values.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd store.ProfileUpdate) (domain.User, error) {
	upd.FirstName = strings.TrimSpace(upd.FirstName)
	upd.LastName = strings.TrimSpace(upd.LastName)

	if err := s.Store.Users().UpdateProfile(ctx, userID, upd); err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByID(ctx, userID)
}

// RegisterPushToken stores or replaces the device token push notices go to.
// An empty token unregisters the device.
func (s *UserService) RegisterPushToken(ctx context.Context, userID, token string) error {
	return s.Store.Users().UpdatePushToken(ctx, userID, token)
}
