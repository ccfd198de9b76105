package contracts

const (
	// TopicEventStatusChanged carries terminal status notifications from the
	// line provider to bet makers.
	TopicEventStatusChanged = "event_status_changed"
)
