package core

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"wolfgym.com/wolfgym/gym/model"
	"wolfgym.com/wolfgym/utils"
)

// ProfileInfo is everything the kiosk display needs about a member at the
// moment they pass the door.
type ProfileInfo struct {
	UserID    string     `json:"userId"`
	ProfileID *string    `json:"profileId"`
	FullName  string     `json:"fullName"`
	AvatarURL *string    `json:"avatarUrl"`
	Plan      *string    `json:"plan"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	DaysLeft  *int       `json:"daysLeft"`
	DebtBreakdown
}

// GetProfileInfo assembles the member's display data: name (profile name wins
// over the account name, username as last resort), membership window, days
// left and the fresh debt total.
func GetProfileInfo(db *gorm.DB, now time.Time, userID string) (*ProfileInfo, error) {
	var user model.User
	err := db.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	info := &ProfileInfo{
		UserID:    user.ID,
		FullName:  user.FullName(),
		AvatarURL: user.Image,
	}

	var profile model.ClientProfile
	err = db.First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}

	if name := profile.DisplayName(); name != "" {
		info.FullName = name
	}
	info.ProfileID = &profile.ProfileID
	info.Plan = profile.Plan
	info.StartDate = profile.StartDate
	info.EndDate = profile.EndDate
	info.DaysLeft = utils.DaysLeft(profile.EndDate, now)

	debt, err := ComputeDebt(db, &profile)
	if err != nil {
		return nil, err
	}
	info.DebtBreakdown = debt

	return info, nil
}
