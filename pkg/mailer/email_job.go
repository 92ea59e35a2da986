package mailer

// EmailJob is a rendered-on-demand notification: Template names a set of
// embedded templates and Data feeds them. Subject/Text/HTML override the
// rendered parts when set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "new_follower" or "welcome"
	Data     map[string]any `json:"data,omitempty"`
}
