package events

// EventType identifies an event family
type EventType string

// Event types published by the feed services and background jobs
const (
	BatchRefreshed  EventType = "batch_refreshed"
	StatusChanged   EventType = "status_changed"
	RecordResolved  EventType = "record_resolved"
	SignalDetected  EventType = "signal_detected"
	BackupCompleted EventType = "backup_completed"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// BatchRefreshedData contains data for BatchRefreshed events
type BatchRefreshedData struct {
	Feed      string `json:"feed"`
	PeriodKey string `json:"period_key"`
	Inserted  int    `json:"inserted"`
	Removed   int    `json:"removed"`
}

// EventType returns the event type for BatchRefreshedData
func (d *BatchRefreshedData) EventType() EventType {
	return BatchRefreshed
}

// StatusChangedData contains data for StatusChanged events
type StatusChangedData struct {
	Feed     string `json:"feed"`
	RecordID string `json:"record_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// EventType returns the event type for StatusChangedData
func (d *StatusChangedData) EventType() EventType {
	return StatusChanged
}

// RecordResolvedData contains data for RecordResolved events
type RecordResolvedData struct {
	Feed       string   `json:"feed"`
	RecordID   string   `json:"record_id"`
	Outcome    string   `json:"outcome"`
	Correct    *bool    `json:"correct,omitempty"`
	ProfitLoss *float64 `json:"profit_loss,omitempty"`
}

// EventType returns the event type for RecordResolvedData
func (d *RecordResolvedData) EventType() EventType {
	return RecordResolved
}

// SignalDetectedData contains data for SignalDetected events
type SignalDetectedData struct {
	Feed      string `json:"feed"`
	RecordID  string `json:"record_id"`
	Direction string `json:"direction"`
	Interval  string `json:"interval"`
}

// EventType returns the event type for SignalDetectedData
func (d *SignalDetectedData) EventType() EventType {
	return SignalDetected
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Filename  string  `json:"filename"`
	SizeBytes int64   `json:"size_bytes"`
	Duration  float64 `json:"duration_seconds"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}
