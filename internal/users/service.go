package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetkart/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/sweetkart/sweetshop-backend/pkg/errors"
	"github.com/sweetkart/sweetshop-backend/pkg/pagination"
)

// UserPage is one offset page of accounts plus the overall count.
type UserPage struct {
	Users []UserDTO `json:"users"`
	Total int64     `json:"total"`
}

// Service exposes the admin account operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, limit, offset int) (*UserPage, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) (*UserDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the users service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, limit, offset int) (*UserPage, error) {
	limit = pagination.NormalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}

	page := &UserPage{Users: make([]UserDTO, 0, len(rows)), Total: total}
	for i := range rows {
		page.Users = append(page.Users, *FromModel(&rows[i]))
	}
	return page, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return s.Get(ctx, id)
}

func (s *service) SetRole(ctx context.Context, id uuid.UUID, role string) (*UserDTO, error) {
	parsed, err := enums.ParseUserRole(role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetRole(ctx, id, parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return s.Get(ctx, id)
}
