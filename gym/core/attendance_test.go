package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/gym/schedule"
	"wolfgym.com/wolfgym/utils"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A fresh connection would be a fresh empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.ClientProfile{},
		&model.AttendanceRecord{},
		&model.DailyDebt{},
		&model.DebtHistory{},
		&model.Fingerprint{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, FirstName: "Ana", LastName: "Torres"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Wednesday 19:45 local, inside the GYM block.
func eveningNow() time.Time {
	return time.Date(2025, 3, 12, 19, 45, 0, 0, utils.LimaTZ)
}

func TestCheckInCreatesOpenTaggedRecord(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	rec, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)

	assert.True(t, rec.IsOpen())
	require.NotNil(t, rec.Type)
	assert.Equal(t, schedule.TypeGym, *rec.Type)
	require.NotNil(t, rec.OpenDay)
	assert.Equal(t, "2025-03-12", *rec.OpenDay)

	open, err := HasOpenSession(db, now, user.ID)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestCheckInRejectsSecondOpenSession(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	_, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)

	_, err = CheckIn(db, schedule.Default(), now.Add(time.Minute), user.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	var count int64
	require.NoError(t, db.Model(&model.AttendanceRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCheckInAllowedAgainAfterCheckout(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	_, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)
	_, err = CheckOut(db, now.Add(30*time.Minute), user.ID)
	require.NoError(t, err)

	_, err = CheckIn(db, schedule.Default(), now.Add(time.Hour), user.ID)
	assert.NoError(t, err)
}

func TestCheckOutComputesWholeMinutes(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	_, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)

	rec, err := CheckOut(db, now.Add(47*time.Minute+20*time.Second), user.ID)
	require.NoError(t, err)

	require.NotNil(t, rec.DurationMins)
	assert.Equal(t, 47, *rec.DurationMins)
	assert.False(t, rec.IsOpen())
	assert.Nil(t, rec.OpenDay)
}

func TestCheckOutDurationNeverNegative(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	_, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)

	// Clock skew: checkout timestamp before the check-in.
	rec, err := CheckOut(db, now.Add(-2*time.Minute), user.ID)
	require.NoError(t, err)

	require.NotNil(t, rec.DurationMins)
	assert.Equal(t, 0, *rec.DurationMins)
}

func TestCheckOutWithoutOpenSession(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")

	_, err := CheckOut(db, eveningNow(), user.ID)
	assert.ErrorIs(t, err, ErrNoOpenSession)
}

func TestCheckOutAfterSweepClosedTheRecordIsANoOp(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	rec, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)

	// Simulate the sweep winning between the checkout's lookup and its
	// guarded update: the record is closed but still carries its open-day
	// marker when the lookup sees it.
	sweepTime := now.Add(10 * time.Minute)
	sweepDuration := 10
	require.NoError(t, db.Model(&model.AttendanceRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{"check_out_time": sweepTime, "duration_mins": sweepDuration}).Error)

	got, err := CheckOut(db, now.Add(55*time.Minute), user.ID)
	require.NoError(t, err)

	// The sweep's close stands; no double count.
	require.NotNil(t, got.DurationMins)
	assert.Equal(t, sweepDuration, *got.DurationMins)
	require.NotNil(t, got.CheckOutTime)
	assert.WithinDuration(t, sweepTime, *got.CheckOutTime, time.Second)
}

func TestCloseOpenRecordsSweep(t *testing.T) {
	db := testDB(t)
	now := eveningNow()

	ana := seedUser(t, db, "ana")
	bruno := seedUser(t, db, "bruno")
	_, err := CheckIn(db, schedule.Default(), now.Add(-90*time.Minute), ana.ID)
	require.NoError(t, err)
	_, err = CheckIn(db, schedule.Default(), now.Add(-30*time.Minute), bruno.ID)
	require.NoError(t, err)

	closed, err := CloseOpenRecords(db, now)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	var stillOpen int64
	require.NoError(t, db.Model(&model.AttendanceRecord{}).
		Where("check_out_time IS NULL").Count(&stillOpen).Error)
	assert.Zero(t, stillOpen)

	var records []model.AttendanceRecord
	require.NoError(t, db.Order("check_in_time").Find(&records).Error)
	require.Len(t, records, 2)
	assert.Equal(t, 90, *records[0].DurationMins)
	assert.Equal(t, 30, *records[1].DurationMins)
}

func TestCloseOpenRecordsIsIdempotent(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	_, err := CheckIn(db, schedule.Default(), now, user.ID)
	require.NoError(t, err)

	closed, err := CloseOpenRecords(db, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	closed, err = CloseOpenRecords(db, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestCloseOpenRecordsIncludesStalePriorDays(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	now := eveningNow()

	// Left open three days ago by a missed sweep.
	stale := now.Add(-72 * time.Hour)
	_, err := CheckIn(db, schedule.Default(), stale, user.ID)
	require.NoError(t, err)

	closed, err := CloseOpenRecords(db, now)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"Bare nine digits", "987654321", "987654321"},
		{"Plus country code", "+51987654321", "987654321"},
		{"Country code no plus", "51987654321", "987654321"},
		{"Spaces and dashes", "987 654-321", "987654321"},
		{"Too short stays short", "1234", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.raw))
		})
	}
}

func TestFindUserIDByPhone(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	profile := &model.ClientProfile{UserID: user.ID, Phone: utils.Ptr("+51987654321")}
	require.NoError(t, db.Create(profile).Error)

	id, err := FindUserIDByPhone(db, "987654321")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	id, err = FindUserIDByPhone(db, "+51 987 654 321")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestFindUserIDByPhoneFallsBackToUserPhone(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "ana")
	require.NoError(t, db.Model(user).Update("phone_number", "912345678").Error)

	id, err := FindUserIDByPhone(db, "51912345678")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestFindUserIDByPhoneErrors(t *testing.T) {
	db := testDB(t)

	_, err := FindUserIDByPhone(db, "12345")
	assert.ErrorIs(t, err, ErrInvalidPhone)

	_, err = FindUserIDByPhone(db, "999888777")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
