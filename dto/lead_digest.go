package dto

// Event is the envelope every message published to RabbitMQ travels in.
type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id        string      `json:"id"`
	EntityId  string      `json:"entityId"`
	EventType string      `json:"eventType"`
	Data      interface{} `json:"data"`
}

type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	Timestamp   string `json:"timestamp"`
}

// SendDigest asks the external mailer to deliver one class run's leads.
// The MIME message is fully assembled; the mailer owns delivery and retries.
type SendDigest struct {
	AutomationClassID string   `json:"automationClassId"`
	ClientID          string   `json:"clientId"`
	ClientEmail       string   `json:"clientEmail"`
	Subject           string   `json:"subject"`
	LeadIDs           []string `json:"leadIds"`
	PermitIDs         []string `json:"permitIds"`
	MimeMessage       string   `json:"mimeMessage"`
	ArchiveKey        string   `json:"archiveKey,omitempty"`
}
