package types

type RegisterRequest struct {
	OwnerName string `json:"owner_name"`
	OwnerID   string `json:"owner_id"`
	Phone     string `json:"phone"`
	PCSerial  string `json:"pc_serial"`
}

type RegisterResponse struct {
	OK           bool   `json:"ok"`
	Registered   bool   `json:"registered"`
	Reason       string `json:"reason,omitempty"`
	ID           int64  `json:"id,omitempty"`
	OwnerName    string `json:"owner_name,omitempty"`
	OwnerID      string `json:"owner_id,omitempty"`
	PCSerial     string `json:"pc_serial"`
	RegisteredAt string `json:"registered_at,omitempty"`
}
