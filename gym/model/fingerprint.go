package model

import "time"

// Fingerprint marks that a user has a template enrolled on the biometric store
// service. The template itself lives remotely; this row is the local one-to-one
// bookkeeping the admin screens query. Re-registration replaces, never merges.
type Fingerprint struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"userId"`
	Samples   int       `gorm:"default:1" json:"samples"`
	CreatedAt time.Time `gorm:"not null;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Fingerprint) TableName() string {
	return "fingerprints"
}
