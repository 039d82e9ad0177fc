package domain

// Settings is the singleton studio configuration stored in the document.
type Settings struct {
	StudioName       string `json:"studioName"`
	ContactPhone     string `json:"contactPhone,omitempty"`
	KioskExitPINHash string `json:"kioskExitPinHash,omitempty"`
	AutoBackup       bool   `json:"autoBackup"`
}

// DefaultSettings returns the settings a fresh document starts with.
func DefaultSettings() Settings {
	return Settings{
		StudioName: "FisioStudio",
		AutoBackup: true,
	}
}
