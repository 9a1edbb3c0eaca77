package types

// RegistrationView is the audit-listing shape of a registration record.
type RegistrationView struct {
	ID           int64  `json:"id"`
	OwnerName    string `json:"owner_name"`
	OwnerID      string `json:"owner_id"`
	Phone        string `json:"phone"`
	PCSerial     string `json:"pc_serial"`
	RegisteredAt string `json:"registered_at"`
}

// OwnerHistoryEntry is one verification event decomposed for display,
// newest first.  Seq numbers the rows within the response.
type OwnerHistoryEntry struct {
	Seq        int    `json:"seq"`
	Kind       string `json:"kind"`
	Time       string `json:"time"`    // "15:04"
	Weekday    string `json:"weekday"` // "Monday"
	Month      string `json:"month"`   // "January"
	Year       string `json:"year"`    // "2006"
	OccurredAt string `json:"occurred_at"`
}
