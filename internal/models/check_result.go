package models

import "time"

// CheckResult is one scored outcome for a submission. Rows are append-only:
// re-scoring a submission adds new rows rather than replacing old ones.
type CheckResult struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	Task      string    `gorm:"size:255;not null;index" json:"task"`
	Round     int       `gorm:"not null" json:"round"`
	RepoURL   string    `gorm:"size:512;not null" json:"repo_url"`
	CommitSHA string    `gorm:"size:64" json:"commit_sha"`
	PagesURL  string    `gorm:"size:512" json:"pages_url"`
	CheckName string    `gorm:"size:128;not null" json:"check_name"`
	Score     float64   `gorm:"not null" json:"score"`
	Reason    string    `gorm:"type:text" json:"reason"`
	Logs      string    `gorm:"type:text" json:"logs"`
}
