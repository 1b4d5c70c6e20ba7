package email

// Provider sends outbound email.
type Provider interface {
	// Send delivers a plain or HTML message.
	Send(email *Email) error

	// SendWithTemplate renders templateName with data into the message body
	// before sending.
	SendWithTemplate(templateName string, data TemplateData, email *Email) error

	// Validate checks the provider configuration.
	Validate() error

	// Close releases provider resources.
	Close() error
}

// TemplateRenderer renders named message templates.
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
	LoadTemplates(dirPath string) error
}
