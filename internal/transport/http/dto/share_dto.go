package dto

type ShareCreateRequest struct {
	UserID  string `json:"user_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type ShareCreateResponse struct {
	ShareID  string `json:"share_id"`
	ShareURL string `json:"share_url"`
	StoreURL string `json:"store_url"`
}

type ShareGetResponse struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type ShareClaimRequest struct {
	UserID  string `json:"user_id,omitempty"`
	ShareID string `json:"share_id"`
	Shared  bool   `json:"shared"`
}

type ShareClaimResponse struct {
	OK bool `json:"ok"`
}
