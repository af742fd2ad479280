package repository

import (
	"context"
	"time"
	"uplook_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile 只更新资料字段，避免覆盖并发写入的连续打卡状态
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Model(user).
		Select("name", "age", "onboarded").
		Updates(user).Error
}

func (r *UserRepository) TouchLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// BreakStreak 把上次活动早于 cutoff 的用户连续天数清零，返回是否有行被修改
func (r *UserRepository) BreakStreak(ctx context.Context, userID uint, cutoff time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND current_streak > 0 AND last_activity_date < ?", userID, cutoff).
		Update("current_streak", 0)
	return res.RowsAffected > 0, res.Error
}

// BreakLapsedStreaks 批量版本，供夜间任务使用
func (r *UserRepository) BreakLapsedStreaks(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("current_streak > 0 AND last_activity_date < ?", cutoff).
		Update("current_streak", 0)
	return res.RowsAffected, res.Error
}
