package service

import (
	"context"
	"fmt"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"

	"go.uber.org/zap"
)

// 里程碑周期（天），对应周徽章
const streakMilestoneDays = 7

// daysSince 以 now 所在时区的日历日计算间隔，只看日期部分
func daysSince(last, now time.Time) int {
	ly, lm, ld := last.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	a := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ApplyActivity 记录一次活动后的连续打卡状态。
// 同一天重复调用不会再次累加；早于上次活动日期的时间戳按同一天处理。
func ApplyActivity(state model.StreakState, at time.Time) model.StreakState {
	next := state

	if state.LastActivityDate == nil {
		next.CurrentStreak = 1
	} else {
		switch delta := daysSince(*state.LastActivityDate, at); {
		case delta <= 0:
			return state
		case delta == 1:
			next.CurrentStreak = state.CurrentStreak + 1
		default:
			next.CurrentStreak = 1
		}
	}

	stamp := at
	next.LastActivityDate = &stamp
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next
}

// EffectiveStreak 只读查询：间隔两天及以上视为已中断，返回 0，不写库
func EffectiveStreak(state model.StreakState, now time.Time) int {
	if state.LastActivityDate == nil {
		return 0
	}
	if daysSince(*state.LastActivityDate, now) >= 2 {
		return 0
	}
	return state.CurrentStreak
}

// StreakPercentage 距离下一个 7 天里程碑的进度，范围 [0, 100)
func StreakPercentage(streak int) float64 {
	if streak <= 0 {
		return 0
	}
	return float64(streak%streakMilestoneDays) / streakMilestoneDays * 100
}

func BuildStreakStatus(state model.StreakState, now time.Time) model.StreakStatus {
	current := EffectiveStreak(state, now)
	return model.StreakStatus{
		CurrentStreak:    current,
		LongestStreak:    state.LongestStreak,
		LastActivityDate: state.LastActivityDate,
		StreakPercentage: StreakPercentage(current),
	}
}

// streakBreakCutoff 上次活动早于昨天零点即为中断
func streakBreakCutoff(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, now.Location())
}

type StreakUserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	BreakStreak(ctx context.Context, userID uint, cutoff time.Time) (bool, error)
	BreakLapsedStreaks(ctx context.Context, cutoff time.Time) (int64, error)
}

type StreakService struct {
	Users StreakUserStore
	Now   func() time.Time
}

func NewStreakService(users StreakUserStore) *StreakService {
	return &StreakService{Users: users, Now: time.Now}
}

// GetStatus 读取连续打卡状态，不产生任何写入
func (s *StreakService) GetStatus(ctx context.Context, userID uint) (*model.StreakStatus, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := BuildStreakStatus(user.Streak(), s.Now())
	return &status, nil
}

// ApplyStreakBreak 显式命令：把已中断的连续天数落库为 0。
// 条件更新保证不会覆盖并发写入的新活动。
func (s *StreakService) ApplyStreakBreak(ctx context.Context, userID uint, now time.Time) (bool, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	state := user.Streak()
	if state.CurrentStreak == 0 || EffectiveStreak(state, now) != 0 {
		return false, nil
	}
	broken, err := s.Users.BreakStreak(ctx, userID, streakBreakCutoff(now))
	if err != nil {
		return false, fmt.Errorf("apply streak break: %w", err)
	}
	return broken, nil
}

// BreakLapsedStreaks 夜间任务：批量清零所有已中断的连续天数
func (s *StreakService) BreakLapsedStreaks(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.Users.BreakLapsedStreaks(ctx, streakBreakCutoff(now))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Log.Info("Lapsed streaks reset", zap.Int64("users", n))
	}
	return n, nil
}
