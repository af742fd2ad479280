// 手动触发后台任务脚本
//
// 日记情绪打分和连续打卡清零已集成到主应用的定时任务中。
// 此脚本用于首次部署、导入历史日记或定时任务停摆后的补跑。
//
// 用法: go run scripts/run_jobs.go [-batch 200] [-skip-streaks]

package main

import (
	"context"
	"flag"
	"log"
	"time"
	"uplook_backend/internal/config"
	"uplook_backend/internal/repository"
	"uplook_backend/internal/service"
	"uplook_backend/pkg/database"
	"uplook_backend/pkg/logger"
)

func main() {
	batch := flag.Int("batch", 200, "单次补打分的日记数量上限")
	skipStreaks := flag.Bool("skip-streaks", false, "只补打分，不清零中断的连续打卡")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	journals := service.NewJournalService(repository.NewJournalRepository(db), service.NewAIService(cfg.AI))
	log.Println("手动触发日记情绪打分...")
	scored, err := journals.ScorePending(ctx, *batch)
	if err != nil {
		log.Fatalf("情绪打分失败: %v", err)
	}
	log.Printf("已打分 %d 条", scored)

	if !*skipStreaks {
		streaks := service.NewStreakService(repository.NewUserRepository(db))
		reset, err := streaks.BreakLapsedStreaks(ctx, time.Now())
		if err != nil {
			log.Fatalf("连续打卡清零失败: %v", err)
		}
		log.Printf("已清零 %d 个中断的连续打卡", reset)
	}
	log.Println("完成！")
}
