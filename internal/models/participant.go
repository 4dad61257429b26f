package models

import "time"

// Participant is a registered assessment participant: the endpoint tasks are
// dispatched to and the shared secret carried in each dispatch payload.
type Participant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Endpoint  string    `gorm:"size:512;not null" json:"endpoint"`
	Secret    string    `gorm:"size:255;not null" json:"-"`
}
