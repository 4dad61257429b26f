package dto

import (
	"github.com/noah-isme/deployeval/internal/catalog"
)

// DispatchRequest is the payload POSTed to a participant endpoint when a
// task is issued.
type DispatchRequest struct {
	Email         string               `json:"email" validate:"required,email"`
	Secret        string               `json:"secret" validate:"required"`
	Task          string               `json:"task" validate:"required"`
	Round         int                  `json:"round" validate:"required,min=1"`
	Nonce         string               `json:"nonce" validate:"required"`
	Brief         string               `json:"brief" validate:"required"`
	Checks        []string             `json:"checks"`
	Attachments   []catalog.Attachment `json:"attachments"`
	EvaluationURL string               `json:"evaluation_url" validate:"required,url"`
}

// NewDispatchRequest maps a materialised task instance onto the wire payload.
func NewDispatchRequest(instance catalog.Instance, secret string) DispatchRequest {
	return DispatchRequest{
		Email:         instance.Email,
		Secret:        secret,
		Task:          instance.Task,
		Round:         instance.Round,
		Nonce:         instance.Nonce,
		Brief:         instance.Brief,
		Checks:        instance.Checks,
		Attachments:   instance.Attachments,
		EvaluationURL: instance.EvaluationURL,
	}
}

// DispatchErrorNotice is the best-effort payload sent to the evaluation
// callback when building or delivering a task fails, so the coordinating
// side is never silently unaware of a failure.
type DispatchErrorNotice struct {
	Email string `json:"email"`
	Task  string `json:"task,omitempty"`
	Round int    `json:"round"`
	Error string `json:"error"`
}
