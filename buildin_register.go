package auth

import (
	"context"

	"github.com/goliatone/hashid/pkg/hashid"
)

// Register stores a new user. The username is checked up front and the
// unique constraint of the store covers concurrent registrations.
func (h *BuildInAuthHandler) Register(ctx context.Context, repo UserRepository, input CreateUser, role Role) error {
	if err := h.register(ctx, repo, input, role); err != nil {
		return h.fail(ctx, ActivityEventRegisterFailure, input.Username, err)
	}
	return nil
}

func (h *BuildInAuthHandler) register(ctx context.Context, repo UserRepository, input CreateUser, role Role) error {
	if err := h.ready(OpRegister); err != nil {
		return err
	}

	if err := input.Validate(); err != nil {
		return invalidData(OpRegister, "Invalid registration data", err)
	}

	if !role.IsValid() {
		return invalidData(OpRegister, "Invalid role", nil)
	}

	if err := checkContext(ctx, OpRegister); err != nil {
		return err
	}

	_, err := repo.FindOne(ctx, ByUsername(input.Username))
	switch {
	case err == nil:
		return invalidData(OpRegister, "User already exists", nil)
	case !IsNoRowFound(err):
		return unknown(OpRegister, "Error while searching for user", err)
	}

	hash, err := h.passwords.HashPassword(input.Password)
	if err != nil {
		return unknown(OpRegister, "Error while hashing password", err)
	}

	user := input.NewUser(role, hash, h.Name())
	if h.useHashid {
		if id, err := hashid.NewUUID(input.Username); err == nil {
			user.ID = id
		}
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		if IsDuplicateRecord(err) {
			return invalidData(OpRegister, "User already exists", err)
		}
		return unknown(OpRegister, "Error while creating user", err)
	}

	h.opts.logger.Info("user registered",
		"handler", h.Name(),
		"user_id", created.ID.String(),
		"role", created.Role.String(),
	)

	h.record(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		UserID:    created.ID.String(),
		Username:  created.Username,
	})

	return nil
}
