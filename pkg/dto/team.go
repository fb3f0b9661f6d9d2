package dto

type InviteMemberRequest struct {
	Email      string  `json:"email"`
	HourlyRate float64 `json:"hourly_rate"`
	Currency   string  `json:"currency"`
	IsApprover bool    `json:"is_approver"`
}

type UpdateMemberRequest struct {
	HourlyRate *float64 `json:"hourly_rate"`
	Currency   *string  `json:"currency"`
	IsApprover *bool    `json:"is_approver"`
}
