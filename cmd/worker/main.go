package main

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"wolfgym.com/wolfgym/core"
	gym "wolfgym.com/wolfgym/gym/core"
	"wolfgym.com/wolfgym/gym/schedule"
	"wolfgym.com/wolfgym/utils"
)

// The scheduler process. Ticks once a minute in gym-local time and fires the
// three maintenance sweeps: session auto-close at the schedule's closing
// minute, the daily debt sweep at midnight, and the weekly history purge on
// Sunday midnight. Every sweep is idempotent, so a missed or doubled tick is
// harmless.
func main() {
	dsn := os.Getenv("DSN")
	dm, err := core.New(dsn, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	sched, err := schedule.Load(os.Getenv("SCHEDULE_PATH"))
	if err != nil {
		log.Fatal("Failed to load schedule:", err)
	}

	log.Println("[WORKER] scheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastMinute := ""
	for {
		now := utils.LimaNow()
		minute := now.Format("2006-01-02 15:04")
		if minute != lastMinute {
			lastMinute = minute
			tick(dm, sched, now)
		}
		<-ticker.C
	}
}

func tick(dm *core.DatabaseManager, sched *schedule.Schedule, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Second)
	defer cancel()

	minuteOfDay := now.Hour()*60 + now.Minute()

	if closeMin, ok := sched.AutoCloseMinute(now.Weekday()); ok && minuteOfDay == closeMin {
		if err := dm.Exec(ctx, func(db *gorm.DB) error {
			closed, err := gym.CloseOpenRecords(db, now)
			if err != nil {
				return err
			}
			log.Printf("[WORKER] auto-close: closed %d open sessions", closed)
			return nil
		}); err != nil {
			log.Printf("[WORKER] auto-close failed: %v", err)
		}
	}

	if minuteOfDay == 0 {
		if err := dm.Exec(ctx, func(db *gorm.DB) error {
			moved, err := gym.CleanupDailyDebts(db, now)
			if err != nil {
				return err
			}
			log.Printf("[WORKER] daily debt sweep: archived %d items", moved)
			return nil
		}); err != nil {
			log.Printf("[WORKER] daily debt sweep failed: %v", err)
		}

		if now.Weekday() == time.Sunday {
			if err := dm.Exec(ctx, func(db *gorm.DB) error {
				deleted, err := gym.CleanupWeeklyHistory(db, now, false)
				if err != nil {
					return err
				}
				log.Printf("[WORKER] weekly history sweep: purged %d rows", deleted)
				return nil
			}); err != nil {
				log.Printf("[WORKER] weekly history sweep failed: %v", err)
			}
		}
	}
}
