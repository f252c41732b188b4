package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	Username    string  `gorm:"size:64;uniqueIndex" json:"username"`
	FirstName   string  `gorm:"size:64" json:"firstName"`
	LastName    string  `gorm:"size:64" json:"lastName"`
	PhoneNumber *string `gorm:"size:20;index" json:"phoneNumber"`
	Image       *string `gorm:"size:255" json:"image"`
	Role        string  `gorm:"size:16;default:client" json:"role"`

	Profile *ClientProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`

	CreatedAt time.Time `gorm:"not null;<-:create" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) FullName() string {
	name := u.FirstName + " " + u.LastName
	if name == " " {
		return u.Username
	}
	return name
}

// ClientProfile carries the membership data shown on the kiosk: plan window,
// phone used for phone check-in, and the running monthly debt.
type ClientProfile struct {
	ProfileID string     `gorm:"primaryKey;size:36;column:profile_id" json:"profileId"`
	UserID    string     `gorm:"size:36;uniqueIndex;not null;column:user_id" json:"userId"`
	FirstName string     `gorm:"size:64;column:profile_first_name" json:"firstName"`
	LastName  string     `gorm:"size:64;column:profile_last_name" json:"lastName"`
	Phone     *string    `gorm:"size:20;index;column:profile_phone" json:"phone"`
	Plan      *string    `gorm:"size:32;column:profile_plan" json:"plan"`
	StartDate *time.Time `gorm:"column:profile_start_date" json:"startDate"`
	EndDate   *time.Time `gorm:"column:profile_end_date" json:"endDate"`
	Debt      float64    `gorm:"type:decimal(10,2);default:0" json:"debt"`
}

func (ClientProfile) TableName() string {
	return "client_profiles"
}

func (p *ClientProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ProfileID == "" {
		p.ProfileID = uuid.NewString()
	}
	return nil
}

func (p *ClientProfile) DisplayName() string {
	name := p.FirstName + " " + p.LastName
	if name == " " {
		return ""
	}
	return name
}

// Expired reports whether the membership end date has passed.
func (p *ClientProfile) Expired(now time.Time) bool {
	return p.EndDate != nil && p.EndDate.Before(now)
}
