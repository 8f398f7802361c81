package domain

// TaskPushDeliveryReport is the async task carrying a DLRPayload.
const TaskPushDeliveryReport = "push_delivery_report"

// DLRTimestampLayout formats DLRPayload.Timestamp.
const DLRTimestampLayout = "2006-01-02 15:04:05.000"

// DLRPayload is delivered to the merchant's delivery URL.
type DLRPayload struct {
	SmsID          string  `json:"sms_id"`
	MobileNumber   string  `json:"mobile_number"`
	DeliveryStatus string  `json:"delivery_status"`
	Timestamp      string  `json:"timestamp"`
	Label          *string `json:"label"`
	HTTPMethod     string  `json:"http_method"`
	DeliveryURL    string  `json:"delivery_url"`
}

// Fields flattens the payload for the webhook client.
func (p DLRPayload) Fields() map[string]string {
	f := map[string]string{
		"sms_id":          p.SmsID,
		"mobile_number":   p.MobileNumber,
		"delivery_status": p.DeliveryStatus,
		"timestamp":       p.Timestamp,
	}
	if p.Label != nil {
		f["label"] = *p.Label
	}
	return f
}
