package dto

// NotificationRequest is the completion report a participant POSTs back to
// the receiver. Email, task, round and nonce are required; the artefact
// fields and error are optional.
type NotificationRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Task      string `json:"task" validate:"required"`
	Round     int    `json:"round" validate:"required,min=1"`
	Nonce     string `json:"nonce" validate:"required"`
	RepoURL   string `json:"repo_url,omitempty" validate:"omitempty,url"`
	CommitSHA string `json:"commit_sha,omitempty"`
	PagesURL  string `json:"pages_url,omitempty" validate:"omitempty,url"`
	Error     string `json:"error,omitempty"`
}

// NotificationResponse acknowledges an accepted notification.
type NotificationResponse struct {
	Status         string `json:"status"`
	NotificationID int    `json:"notification_id"`
	Message        string `json:"message,omitempty"`
}
