package types

type VerifyRequest struct {
	PCSerial string `json:"pc_serial"`
	Phone    string `json:"phone"`
	Gate     string `json:"gate"`
}

type VerifyResponse struct {
	OK         bool   `json:"ok"`
	Verified   bool   `json:"verified"`
	Reason     string `json:"reason"`
	OwnerName  string `json:"owner_name,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
	PCSerial   string `json:"pc_serial"`
	Gate       string `json:"gate,omitempty"`
	Kind       string `json:"kind,omitempty"`
	OccurredAt string `json:"occurred_at,omitempty"`
}
