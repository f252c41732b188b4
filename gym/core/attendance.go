package core

import (
	"errors"
	"math"
	"regexp"
	"time"

	"gorm.io/gorm"

	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/gym/schedule"
	"wolfgym.com/wolfgym/utils"
)

var (
	// ErrAlreadyCheckedIn: the user already has an open session today. A
	// user-facing conflict, not a fault.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	// ErrNoOpenSession: checkout was requested but nothing is open today.
	ErrNoOpenSession = errors.New("no open session today")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidPhone  = errors.New("invalid phone number")
)

// Peru country code, with and without the plus; profiles store either form.
const countryCode = "51"

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone strips everything but digits and keeps the trailing 9 (local
// numbers are 9 digits; longer input is assumed to carry the country code).
func NormalizePhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) > 9 {
		digits = digits[len(digits)-9:]
	}
	return digits
}

// FindUserIDByPhone resolves a phone number to a user id, matching the bare
// 9-digit form and both country-code-prefixed forms against the client profile
// phone and falling back to the user phone column.
func FindUserIDByPhone(db *gorm.DB, raw string) (string, error) {
	phone := NormalizePhone(raw)
	if len(phone) != 9 {
		return "", ErrInvalidPhone
	}
	candidates := []string{phone, "+" + countryCode + phone, countryCode + phone}

	var profile model.ClientProfile
	err := db.Where("profile_phone IN ?", candidates).First(&profile).Error
	if err == nil {
		return profile.UserID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var user model.User
	err = db.Where("phone_number IN ?", candidates).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func dayKey(t time.Time) string {
	return t.In(utils.LimaTZ).Format("2006-01-02")
}

func wholeMinutes(from, to time.Time) int {
	mins := int(math.Round(to.Sub(from).Minutes()))
	if mins < 0 {
		mins = 0
	}
	return mins
}

// CheckIn opens a session for userID at now, tagged with the schedule's
// current session type. The open-record precondition and the insert run in one
// transaction, and the (user_id, open_day) unique index backs the check under
// concurrent attempts: the race loser gets ErrAlreadyCheckedIn, never a
// duplicate open record.
func CheckIn(db *gorm.DB, sched *schedule.Schedule, now time.Time, userID string) (*model.AttendanceRecord, error) {
	day := dayKey(now)
	record := &model.AttendanceRecord{
		UserID:      userID,
		CheckInTime: now,
		OpenDay:     &day,
		Type:        sched.Classify(now).SessionType,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.AttendanceRecord{}).
			Where("user_id = ? AND open_day = ?", userID, day).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyCheckedIn
		}
		return tx.Create(record).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CheckOut closes today's open session for userID, computing the duration in
// whole minutes (never negative). If the auto-close sweep won the race and the
// record is already closed, the closed record is returned as-is; closing a
// closed record is a no-op, not an error.
func CheckOut(db *gorm.DB, now time.Time, userID string) (*model.AttendanceRecord, error) {
	var open model.AttendanceRecord
	err := db.Where("user_id = ? AND open_day = ?", userID, dayKey(now)).
		Order("check_in_time DESC").
		First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}

	duration := wholeMinutes(open.CheckInTime, now)
	res := db.Model(&model.AttendanceRecord{}).
		Where("id = ? AND check_out_time IS NULL", open.ID).
		Updates(map[string]any{
			"check_out_time": now,
			"duration_mins":  duration,
			"open_day":       nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Lost the race against the sweep; hand back whatever closed it.
		if err := db.First(&open, "id = ?", open.ID).Error; err != nil {
			return nil, err
		}
		return &open, nil
	}

	open.CheckOutTime = &now
	open.DurationMins = &duration
	open.OpenDay = nil
	return &open, nil
}

// CloseOpenRecords is the auto-close sweep: it closes every record still open
// at invocation time, stale prior-day leftovers included, and reports how many
// it closed. Idempotent and safe to run concurrently: the guarded update
// means each record is closed exactly once and an already-closed record is
// skipped silently. Scheduling (the per-weekday close minute) lives with the
// caller; the sweep itself carries no time logic.
func CloseOpenRecords(db *gorm.DB, now time.Time) (int, error) {
	var open []model.AttendanceRecord
	if err := db.Where("open_day IS NOT NULL AND check_in_time <= ?", now).
		Find(&open).Error; err != nil {
		return 0, err
	}

	closed := 0
	for _, rec := range open {
		duration := wholeMinutes(rec.CheckInTime, now)
		res := db.Model(&model.AttendanceRecord{}).
			Where("id = ? AND check_out_time IS NULL", rec.ID).
			Updates(map[string]any{
				"check_out_time": now,
				"duration_mins":  duration,
				"open_day":       nil,
			})
		if res.Error != nil {
			return closed, res.Error
		}
		closed += int(res.RowsAffected)
	}
	return closed, nil
}

// HasOpenSession reports whether userID has an open record today.
func HasOpenSession(db *gorm.DB, now time.Time, userID string) (bool, error) {
	var count int64
	err := db.Model(&model.AttendanceRecord{}).
		Where("user_id = ? AND open_day = ?", userID, dayKey(now)).
		Count(&count).Error
	return count > 0, err
}
