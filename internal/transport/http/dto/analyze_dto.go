package dto

type AnalyzeRequest struct {
	Message      string `json:"message"`
	Relationship string `json:"relationship,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

type AnalyzeResponse struct {
	Interpretation string   `json:"interpretation"`
	Insight        string   `json:"insight"`
	Tags           []string `json:"tags"`
	Emojis         []string `json:"emojis"`
}

type UnlockRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type UnlockResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
