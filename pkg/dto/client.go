package dto

type ClientRequest struct {
	Name          string  `json:"name"`
	Email         *string `json:"email"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
	HourlyRate    float64 `json:"hourly_rate"`
	Currency      string  `json:"currency"`
}
