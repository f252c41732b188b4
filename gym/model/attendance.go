package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceRecord is one gym visit. While the visit is open OpenDay holds the
// local calendar day of the check-in; it is cleared on close. The unique index
// over (user_id, open_day) is what makes "at most one open record per user per
// day" hold under concurrent check-ins; NULL rows don't collide, so closed
// records never block a new entry.
type AttendanceRecord struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"size:36;not null;index;uniqueIndex:idx_attendance_open" json:"userId"`
	CheckInTime  time.Time  `gorm:"not null;index" json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
	DurationMins *int       `json:"durationMins"`
	Type         *string    `gorm:"size:16" json:"type"`
	OpenDay      *string    `gorm:"size:10;uniqueIndex:idx_attendance_open" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user"`

	CreatedAt time.Time `gorm:"not null;<-:create" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}

func (AttendanceRecord) TableName() string {
	return "attendance"
}

func (r *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *AttendanceRecord) IsOpen() bool {
	return r.CheckOutTime == nil
}
