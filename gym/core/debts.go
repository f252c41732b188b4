package core

import (
	"time"

	"gorm.io/gorm"

	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/utils"
)

// History rows older than this are purged by the weekly sweep.
const historyRetention = 7 * 24 * time.Hour

// DebtBreakdown is a client's outstanding balance, computed fresh on every
// read: the monthly plan debt on the profile plus the sum of active daily
// line items. Nothing is cached.
type DebtBreakdown struct {
	Monthly float64 `json:"monthlyDebt"`
	Daily   float64 `json:"dailyDebt"`
	Total   float64 `json:"totalDebt"`
}

// ComputeDebt totals the profile's balance. A nil profile owes nothing.
func ComputeDebt(db *gorm.DB, profile *model.ClientProfile) (DebtBreakdown, error) {
	if profile == nil {
		return DebtBreakdown{}, nil
	}

	var items []model.DailyDebt
	if err := db.Where("client_profile_id = ?", profile.ProfileID).Find(&items).Error; err != nil {
		return DebtBreakdown{}, err
	}

	daily := utils.Sum(items, func(d model.DailyDebt) float64 { return d.Amount })
	return DebtBreakdown{
		Monthly: profile.Debt,
		Daily:   daily,
		Total:   profile.Debt + daily,
	}, nil
}

// CleanupDailyDebts is the nightly sweep: every active daily debt is archived
// into history (keeping its original creation time, stamping now as the
// archival time) and removed from the active set. The read set is snapshotted
// up front; items created after that are left for the next sweep. The move
// runs row by row inside one transaction, delete first: a row another sweep
// already took is skipped, so each debt is archived exactly once.
func CleanupDailyDebts(db *gorm.DB, now time.Time) (int, error) {
	var snapshot []model.DailyDebt
	if err := db.Find(&snapshot).Error; err != nil {
		return 0, err
	}
	if len(snapshot) == 0 {
		return 0, nil
	}

	moved := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, debt := range snapshot {
			res := tx.Delete(&model.DailyDebt{}, "id = ?", debt.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			history := model.DebtHistory{
				ClientProfileID: debt.ClientProfileID,
				ProductType:     debt.ProductType,
				ProductName:     debt.ProductName,
				Amount:          debt.Amount,
				Quantity:        debt.Quantity,
				DebtType:        "daily",
				CreatedBy:       debt.CreatedBy,
				CreatedAt:       debt.CreatedAt,
				DeletedAt:       now,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// CleanupWeeklyHistory purges history entries older than seven days. The
// preserve flag is the administrator's escape hatch: it short-circuits the
// whole deletion and reports success with zero rows touched. Independent of
// the daily sweep; both are idempotent.
func CleanupWeeklyHistory(db *gorm.DB, now time.Time, preserve bool) (int64, error) {
	if preserve {
		return 0, nil
	}

	cutoff := now.Add(-historyRetention)
	res := db.Where("created_at < ?", cutoff).Delete(&model.DebtHistory{})
	return res.RowsAffected, res.Error
}
