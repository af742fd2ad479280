package service

import (
	"context"
	"fmt"
	"uplook_backend/internal/model"
	"uplook_backend/internal/util"
)

type ProfileStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
}

type GoalStore interface {
	List(ctx context.Context) ([]model.Goal, error)
	FindByNames(ctx context.Context, names []string) ([]model.Goal, error)
	UserGoals(ctx context.Context, userID uint) ([]model.Goal, error)
	ReplaceUserGoals(ctx context.Context, userID uint, goalIDs []uint) error
}

// OnboardInput 引导流程提交的资料
type OnboardInput struct {
	Name  string   `json:"name" binding:"omitempty,max=100"`
	Age   *int     `json:"age" binding:"omitempty,min=13,max=120"`
	Goals []string `json:"goals" binding:"required,min=1,dive,required"`
}

type ProfileInput struct {
	Name string `json:"name" binding:"omitempty,max=100"`
	Age  *int   `json:"age" binding:"omitempty,min=13,max=120"`
}

// UserService 处理用户资料和目标
type UserService struct {
	Users ProfileStore
	Goals GoalStore
}

func NewUserService(users ProfileStore, goals GoalStore) *UserService {
	return &UserService{Users: users, Goals: goals}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	return s.Users.FindByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Age != nil {
		user.Age = in.Age
	}
	if err := s.Users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Onboard 保存资料并覆盖用户目标，目标名必须来自预置列表
func (s *UserService) Onboard(ctx context.Context, userID uint, in OnboardInput) (*model.User, error) {
	goals, err := s.Goals.FindByNames(ctx, in.Goals)
	if err != nil {
		return nil, err
	}
	known := make(map[string]uint, len(goals))
	for _, g := range goals {
		known[g.Name] = g.ID
	}
	ids := make([]uint, 0, len(in.Goals))
	seen := make(map[uint]bool, len(in.Goals))
	for _, name := range in.Goals {
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", util.ErrUnknownGoal, name)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Goals.ReplaceUserGoals(ctx, userID, ids); err != nil {
		return nil, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Age != nil {
		user.Age = in.Age
	}
	user.Onboarded = true
	if err := s.Users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) AvailableGoals(ctx context.Context) ([]model.Goal, error) {
	return s.Goals.List(ctx)
}

func (s *UserService) UserGoals(ctx context.Context, userID uint) ([]model.Goal, error) {
	return s.Goals.UserGoals(ctx, userID)
}
