package service

import (
	"context"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/user/dto"
	"anoa.com/akademika/internal/modules/user/repository"
	"anoa.com/akademika/internal/policy"
	commonDto "anoa.com/akademika/pkg/dto"
	"anoa.com/akademika/pkg/validator"
	"github.com/google/uuid"
)

type UserListResponse struct {
	Data []*dto.UserResponse     `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

// UserService backs the admin user management screens.
type UserService interface {
	ListUsers(ctx context.Context, actor policy.Actor, filter dto.UserFilter) (*UserListResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) ListUsers(ctx context.Context, actor policy.Actor, filter dto.UserFilter) (*UserListResponse, error) {
	if err := policy.Authorize(actor, policy.ActionUserManage); err != nil {
		return nil, err
	}
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}

	page := commonDto.PageQuery{Page: filter.Page, Limit: filter.Limit}.Normalize()
	users, total, err := s.repo.FindAll(ctx, repository.UserFilter{
		Role:   entity.Role(filter.Role),
		Search: filter.Search,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	data := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, dto.NewUserResponse(u))
	}
	return &UserListResponse{Data: data, Meta: page.Meta(total)}, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}
