package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/utils"
)

func seedProfile(t *testing.T, db *gorm.DB, monthlyDebt float64) *model.ClientProfile {
	t.Helper()
	user := seedUser(t, db, "ana")
	profile := &model.ClientProfile{
		UserID:    user.ID,
		FirstName: "Ana",
		LastName:  "Torres",
		Debt:      monthlyDebt,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func addDailyDebt(t *testing.T, db *gorm.DB, profileID string, amount float64, createdAt time.Time) *model.DailyDebt {
	t.Helper()
	debt := &model.DailyDebt{
		ClientProfileID: profileID,
		ProductType:     "drink",
		ProductName:     "Protein shake",
		Amount:          amount,
		Quantity:        1,
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(debt).Error)
	return debt
}

func TestComputeDebt(t *testing.T) {
	db := testDB(t)
	profile := seedProfile(t, db, 50)
	now := eveningNow()
	addDailyDebt(t, db, profile.ProfileID, 10, now)
	addDailyDebt(t, db, profile.ProfileID, 15.50, now)

	breakdown, err := ComputeDebt(db, profile)
	require.NoError(t, err)

	assert.Equal(t, 50.0, breakdown.Monthly)
	assert.Equal(t, 25.5, breakdown.Daily)
	assert.Equal(t, 75.5, breakdown.Total)
}

func TestComputeDebtIgnoresOtherProfiles(t *testing.T) {
	db := testDB(t)
	profile := seedProfile(t, db, 0)
	addDailyDebt(t, db, "some-other-profile", 99, eveningNow())

	breakdown, err := ComputeDebt(db, profile)
	require.NoError(t, err)
	assert.Zero(t, breakdown.Total)
}

func TestComputeDebtNilProfile(t *testing.T) {
	db := testDB(t)
	breakdown, err := ComputeDebt(db, nil)
	require.NoError(t, err)
	assert.Zero(t, breakdown.Total)
}

func TestCleanupDailyDebtsMovesEverythingToHistory(t *testing.T) {
	db := testDB(t)
	profile := seedProfile(t, db, 0)
	created := eveningNow().Add(-6 * time.Hour)
	addDailyDebt(t, db, profile.ProfileID, 10, created)
	addDailyDebt(t, db, profile.ProfileID, 20, created)
	addDailyDebt(t, db, profile.ProfileID, 30, created)

	sweepTime := eveningNow()
	moved, err := CleanupDailyDebts(db, sweepTime)
	require.NoError(t, err)
	assert.Equal(t, 3, moved)

	var active int64
	require.NoError(t, db.Model(&model.DailyDebt{}).Count(&active).Error)
	assert.Zero(t, active)

	var history []model.DebtHistory
	require.NoError(t, db.Find(&history).Error)
	require.Len(t, history, 3)
	for _, h := range history {
		assert.Equal(t, "daily", h.DebtType)
		assert.WithinDuration(t, created, h.CreatedAt, time.Second)
		assert.WithinDuration(t, sweepTime, h.DeletedAt, time.Second)
	}
}

func TestCleanupDailyDebtsIsIdempotent(t *testing.T) {
	db := testDB(t)
	profile := seedProfile(t, db, 0)
	addDailyDebt(t, db, profile.ProfileID, 10, eveningNow())

	moved, err := CleanupDailyDebts(db, eveningNow())
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	moved, err = CleanupDailyDebts(db, eveningNow())
	require.NoError(t, err)
	assert.Zero(t, moved)

	var history int64
	require.NoError(t, db.Model(&model.DebtHistory{}).Count(&history).Error)
	assert.Equal(t, int64(1), history)
}

func TestCleanupWeeklyHistory(t *testing.T) {
	db := testDB(t)
	now := eveningNow()

	old := model.DebtHistory{
		ClientProfileID: "p1", Amount: 10, DebtType: "daily",
		CreatedAt: now.Add(-8 * 24 * time.Hour), DeletedAt: now.Add(-8 * 24 * time.Hour),
	}
	recent := model.DebtHistory{
		ClientProfileID: "p1", Amount: 20, DebtType: "daily",
		CreatedAt: now.Add(-3 * 24 * time.Hour), DeletedAt: now.Add(-3 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	deleted, err := CleanupWeeklyHistory(db, now, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []model.DebtHistory
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, 20.0, remaining[0].Amount)
}

func TestCleanupWeeklyHistoryPreserveFlag(t *testing.T) {
	db := testDB(t)
	now := eveningNow()
	require.NoError(t, db.Create(&model.DebtHistory{
		ClientProfileID: "p1", Amount: 10, DebtType: "daily",
		CreatedAt: now.Add(-30 * 24 * time.Hour), DeletedAt: now.Add(-30 * 24 * time.Hour),
	}).Error)

	deleted, err := CleanupWeeklyHistory(db, now, true)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	var count int64
	require.NoError(t, db.Model(&model.DebtHistory{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetProfileInfo(t *testing.T) {
	db := testDB(t)
	now := eveningNow()
	user := seedUser(t, db, "ana")
	end := time.Date(2025, 3, 22, 0, 0, 0, 0, utils.LimaTZ)
	profile := &model.ClientProfile{
		UserID:    user.ID,
		FirstName: "Anita",
		LastName:  "Torres",
		Plan:      utils.Ptr("monthly"),
		EndDate:   &end,
		Debt:      40,
	}
	require.NoError(t, db.Create(profile).Error)
	addDailyDebt(t, db, profile.ProfileID, 12, now)

	info, err := GetProfileInfo(db, now, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "Anita Torres", info.FullName)
	assert.Equal(t, 52.0, info.Total)
	require.NotNil(t, info.DaysLeft)
	assert.Equal(t, 10, *info.DaysLeft)
	require.NotNil(t, info.Plan)
	assert.Equal(t, "monthly", *info.Plan)
}

func TestGetProfileInfoWithoutProfile(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")

	info, err := GetProfileInfo(db, eveningNow(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ana Torres", info.FullName)
	assert.Nil(t, info.ProfileID)
	assert.Zero(t, info.Total)
	assert.Nil(t, info.DaysLeft)
}

func TestGetProfileInfoUnknownUser(t *testing.T) {
	db := testDB(t)
	_, err := GetProfileInfo(db, eveningNow(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
