package domain

// Device is a snapshot from the device registry, keyed by MAC address.
type Device struct {
	Mac         string `json:"mac"`
	Blacklisted bool   `json:"isBlacklisted"`
}

// Trusted reports whether a transaction may originate from the device.
func (d Device) Trusted() bool {
	return !d.Blacklisted
}
