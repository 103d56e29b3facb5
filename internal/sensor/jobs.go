package sensor

// JobStatus is the lifecycle state of a background job on the server.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job reached a terminal state.
func (s JobStatus) Done() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is the full description of a server-side background job.
type Job struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"`
	CreatedAt Time           `json:"created_at"`
	UpdatedAt Time           `json:"updated_at"`
	Params    map[string]any `json:"params,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// JobSummary is the condensed job listing entry.
type JobSummary struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"`
	UpdatedAt Time      `json:"updated_at"`
}

// User is the authenticated operator as reported by the API.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
