package http

// ErrorResponse carries an error code such as "INVALID-SMS-ID".
type ErrorResponse struct {
	Message string `json:"message"`
}

// RepushRequest selects stored incoming messages to push again. At least one
// list must be non-empty.
type RepushRequest struct {
	SmsList     []string `json:"sms_list" validate:"omitempty,dive,uuid"`
	AccountList []int64  `json:"account_list" validate:"omitempty,dive,gt=0"`
}

type RepushResponse struct {
	Message string `json:"message"`
	Queued  int    `json:"queued"`
}

type DLRResponse struct {
	SmsID          string `json:"sms_id"`
	DeliveryStatus string `json:"delivery_status"`
}
