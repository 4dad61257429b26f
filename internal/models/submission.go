package models

import "time"

// Submission is a participant-reported artefact location for a dispatched
// task. Repeated notifications for the same key overwrite the stored row.
type Submission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
	Email      string    `gorm:"size:255;not null;uniqueIndex:idx_submissions_key,priority:1" json:"email"`
	TemplateID string    `gorm:"size:64;not null" json:"template_id"`
	Task       string    `gorm:"size:255;not null;uniqueIndex:idx_submissions_key,priority:2" json:"task"`
	Round      int       `gorm:"not null;uniqueIndex:idx_submissions_key,priority:3" json:"round"`
	Nonce      string    `gorm:"size:64;not null;uniqueIndex:idx_submissions_key,priority:4" json:"nonce"`
	RepoURL    string    `gorm:"size:512;not null" json:"repo_url"`
	CommitSHA  string    `gorm:"size:64" json:"commit_sha"`
	PagesURL   string    `gorm:"size:512" json:"pages_url"`
}
