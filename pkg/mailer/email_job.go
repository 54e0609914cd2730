package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either HTML/Text are set directly, or Template names an embedded template
// rendered by the worker with Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "verify_code"
	Data     map[string]any `json:"data,omitempty"`
}
