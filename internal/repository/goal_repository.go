package repository

import (
	"context"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type GoalRepository struct {
	DB *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: db}
}

func (r *GoalRepository) List(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&goals).Error
	return goals, err
}

func (r *GoalRepository) FindByNames(ctx context.Context, names []string) ([]model.Goal, error) {
	var goals []model.Goal
	if len(names) == 0 {
		return goals, nil
	}
	err := r.DB.WithContext(ctx).Where("name IN ?", names).Find(&goals).Error
	return goals, err
}

func (r *GoalRepository) UserGoals(ctx context.Context, userID uint) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.DB.WithContext(ctx).
		Joins("JOIN user_goals ON user_goals.goal_id = goals.id").
		Where("user_goals.user_id = ?", userID).
		Order("goals.id ASC").
		Find(&goals).Error
	return goals, err
}

// GoalNames 用户声明的目标名称
func (r *GoalRepository) GoalNames(ctx context.Context, userID uint) ([]string, error) {
	goals, err := r.UserGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(goals))
	for _, g := range goals {
		names = append(names, g.Name)
	}
	return names, nil
}

// ReplaceUserGoals 覆盖用户的目标集合
func (r *GoalRepository) ReplaceUserGoals(ctx context.Context, userID uint, goalIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserGoal{}).Error; err != nil {
			return err
		}
		for _, id := range goalIDs {
			if err := tx.Create(&model.UserGoal{UserID: userID, GoalID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
