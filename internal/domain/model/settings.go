package model

// SystemSettings is the process-wide singleton toggling whether new payment
// initiations go through the gateway or require a manual proof. Stored as a
// single row, lazily created with defaults on first read; mutated only by
// administrators.
type SystemSettings struct {
	ManualPaymentEnabled bool
}

func DefaultSystemSettings() *SystemSettings {
	return &SystemSettings{ManualPaymentEnabled: false}
}
