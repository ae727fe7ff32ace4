package domain

// Person is a snapshot from the person registry.
type Person struct {
	Code          string `json:"personCode"`
	WarrantIssued bool   `json:"warrantIssued"`
	HasContract   bool   `json:"hasContract"`
	Blacklisted   bool   `json:"blacklisted"`
}

// InGoodStanding reports whether the person may take part in a transaction.
func (p Person) InGoodStanding() bool {
	return !p.WarrantIssued && p.HasContract && !p.Blacklisted
}
