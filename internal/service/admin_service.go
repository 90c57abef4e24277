package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
	"github.com/iliyamo/lottery-ticketing/internal/utils"
)

// AdminStore is the admins table.  *repository.AdminRepo satisfies it.
type AdminStore interface {
	AdminFinder
	Create(ctx context.Context, a model.Admin) (uint64, error)
	List(ctx context.Context) ([]model.Admin, error)
	Update(ctx context.Context, id uint64, u repository.AdminUpdate) error
	SoftDelete(ctx context.Context, id uint64) error
}

type CreateAdminInput struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// UpdateAdminInput carries optional changes.  A password change needs a
// matching confirmation.
type UpdateAdminInput struct {
	FullName        *string
	Phone           *string
	Password        string
	ConfirmPassword string
}

type AdminService struct {
	admins     AdminStore
	tokens     *TokenService
	bcryptCost int
}

func NewAdminService(admins AdminStore, tokens *TokenService, bcryptCost int) *AdminService {
	return &AdminService{admins: admins, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (model.Admin, error) {
	phone, err := utils.NormalizePhone(in.Phone)
	if err != nil {
		return model.Admin{}, phoneError(err)
	}
	if in.Password != in.ConfirmPassword {
		return model.Admin{}, apperror.BadRequest("Passwords do not match")
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.Admin{}, passwordError(err, "Failed to create admin")
	}
	id, err := s.admins.Create(ctx, model.Admin{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        phone.National,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Admin{}, apperror.Conflict("Email is already registered")
		}
		return model.Admin{}, apperror.Internal("Failed to create admin", err)
	}
	a, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return model.Admin{}, apperror.Internal("Failed to load admin", err)
	}
	return a, nil
}

func (s *AdminService) List(ctx context.Context) ([]model.Admin, error) {
	list, err := s.admins.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to fetch admins", err)
	}
	return list, nil
}

// Update edits admin id.  actorID must be the same admin.
func (s *AdminService) Update(ctx context.Context, actorID, id uint64, in UpdateAdminInput) (model.Admin, error) {
	if actorID != id {
		return model.Admin{}, apperror.Forbidden("You are not allowed to perform this action on another admin.")
	}
	upd := repository.AdminUpdate{FullName: in.FullName}
	if in.Phone != nil && *in.Phone != "" {
		phone, err := utils.NormalizePhone(*in.Phone)
		if err != nil {
			return model.Admin{}, phoneError(err)
		}
		upd.Phone = &phone.National
	}
	if in.Password != "" {
		if in.Password != in.ConfirmPassword {
			return model.Admin{}, apperror.BadRequest("Passwords do not match")
		}
		hash, err := utils.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return model.Admin{}, passwordError(err, "Failed to update admin")
		}
		upd.PasswordHash = &hash
	}
	if err := s.admins.Update(ctx, id, upd); err != nil {
		return model.Admin{}, notFoundOr(err, "Admin not found", "Failed to update admin")
	}
	a, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return model.Admin{}, notFoundOr(err, "Admin not found", "Failed to load admin")
	}
	return a, nil
}

// Delete soft deletes an admin and ends all of its sessions.
func (s *AdminService) Delete(ctx context.Context, id uint64) error {
	if err := s.admins.SoftDelete(ctx, id); err != nil {
		return notFoundOr(err, "Admin not found", "Failed to delete admin")
	}
	return s.tokens.RevokeAll(ctx, model.PrincipalRef{ID: id, Audience: model.AudienceAdmin})
}

func passwordError(err error, internal string) error {
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return apperror.BadRequest("Password must be at most 72 bytes")
	}
	return apperror.Internal(internal, err)
}
