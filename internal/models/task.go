package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Task records one dispatched task instance together with the outcome of the
// delivery attempt. A transport failure is stored with StatusCode zero.
type Task struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Timestamp     time.Time      `gorm:"not null" json:"timestamp"`
	Email         string         `gorm:"size:255;not null;uniqueIndex:idx_tasks_key,priority:1" json:"email"`
	TemplateID    string         `gorm:"size:64;not null" json:"template_id"`
	Task          string         `gorm:"size:255;not null;uniqueIndex:idx_tasks_key,priority:2" json:"task"`
	Round         int            `gorm:"not null;uniqueIndex:idx_tasks_key,priority:3" json:"round"`
	Nonce         string         `gorm:"size:64;not null;uniqueIndex:idx_tasks_key,priority:4" json:"nonce"`
	Seed          string         `gorm:"size:16" json:"seed"`
	Brief         string         `gorm:"type:text;not null" json:"brief"`
	Attachments   datatypes.JSON `gorm:"type:json" json:"attachments"`
	Checks        datatypes.JSON `gorm:"type:json" json:"checks"`
	EvaluationURL string         `gorm:"size:512;not null" json:"evaluation_url"`
	Endpoint      string         `gorm:"size:512;not null" json:"endpoint"`
	StatusCode    int            `json:"status_code"`
	Secret        string         `gorm:"size:255" json:"-"`
}

// ChecksSlice decodes the stored check expressions.
func (t Task) ChecksSlice() []string {
	if len(t.Checks) == 0 {
		return nil
	}

	var checks []string
	if err := json.Unmarshal(t.Checks, &checks); err != nil {
		return nil
	}
	return checks
}

// TaskAttachment is one named artefact delivered alongside a task brief.
type TaskAttachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AttachmentsSlice decodes the stored attachment list.
func (t Task) AttachmentsSlice() []TaskAttachment {
	if len(t.Attachments) == 0 {
		return nil
	}

	var attachments []TaskAttachment
	if err := json.Unmarshal(t.Attachments, &attachments); err != nil {
		return nil
	}
	return attachments
}
