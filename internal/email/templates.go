package email

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TemplateManager is the TemplateRenderer used in production.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	tm.addDefaults()
	return tm
}

// addDefaults installs the built-in lifecycle templates; LoadTemplates can
// override them from disk.
func (tm *TemplateManager) addDefaults() {
	defaults := map[string]string{
		"quotation": `<p>Hello {{.TechnicianName}},</p>
<p>A new quotation request is waiting for you on Dial2Tech.</p>
<p>Enquiry: {{.EnquiryID}}<br>Problem: {{.Problem}}</p>
<p>Estimated cost: ₹{{.EstimatedCost}} (billed: ₹{{.TotalBillingCost}})</p>`,

		"assignment": `<p>Hello {{.TechnicianName}},</p>
<p>You have been assigned enquiry {{.EnquiryID}}.</p>
<p>Problem: {{.Problem}}</p>`,

		"quote_resolution": `<p>Hello,</p>
<p>Technician {{.TechnicianName}} has {{.Action}} the quote for enquiry {{.EnquiryID}}.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,

		"completion": `<p>Hello,</p>
<p>Enquiry {{.EnquiryID}} has been marked complete.</p>
{{if .WorkedHours}}<p>Worked hours: {{.WorkedHours}}, billed amount: ₹{{.TotalBillingCost}}</p>{{end}}`,

		"drop": `<p>Hello {{.Name}},</p>
<p>Your enquiry {{.EnquiryID}} was dropped.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,

		"password_reset": `<p>Hello {{.Name}},</p>
<p>Use this link to reset your Dial2Tech password:</p>
<p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
<p>The link expires in {{.ExpiresIn}}.</p>`,
	}

	for name, tpl := range defaults {
		// Parse errors here are programmer errors; ignore like a missing
		// optional template and let Render report the absence.
		_ = tm.AddTemplate(name, tpl)
	}
}

// Render executes a named template with data.
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate registers or replaces a template.
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}

// LoadTemplates walks dirPath and registers every .html file by base name.
func (tm *TemplateManager) LoadTemplates(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), ".html")
		return tm.AddTemplate(name, string(content))
	})
}
