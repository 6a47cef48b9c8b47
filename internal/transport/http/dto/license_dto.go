package dto

type LicenseRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type LicenseStatusResponse struct {
	Free       int     `json:"free"`
	Ticket     int     `json:"ticket"`
	PassActive bool    `json:"pass_active"`
	PassUntil  *string `json:"pass_until"`
}

type ConsumeResponse struct {
	OK     bool                  `json:"ok"`
	Status LicenseStatusResponse `json:"status"`
}
