package notifications

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names carried in EmailPayload.Template
const (
	TemplateWelcome             = "welcome"
	TemplateEnrollment          = "enrollment"
	TemplateInstructorReview    = "instructor_review"
	TemplateLeadAcknowledgement = "lead_acknowledgement"
	TemplatePromotionsExpired   = "promotions_expired"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]emailTemplate{
	TemplateWelcome: {
		subject: "Welcome to YowaAcademy",
		body: template.Must(template.New(TemplateWelcome).Parse(
			`<p>Hi {{.Name}},</p><p>Your {{.Role}} account is ready. Start exploring courses today.</p>`)),
	},
	TemplateEnrollment: {
		subject: "You are enrolled",
		body: template.Must(template.New(TemplateEnrollment).Parse(
			`<p>Hi {{.Name}},</p><p>You are now enrolled in <b>{{.Course}}</b>.</p>` +
				`<p>Amount: {{.Amount}} ({{.Method}})</p>`)),
	},
	TemplateInstructorReview: {
		subject: "Your instructor application",
		body: template.Must(template.New(TemplateInstructorReview).Parse(
			`<p>Hi {{.Name}},</p>{{if .Approved}}<p>Your application was approved. You can now publish courses.</p>` +
				`{{else}}<p>Unfortunately your application was not approved this time.</p>{{end}}`)),
	},
	TemplateLeadAcknowledgement: {
		subject: "We received your application",
		body: template.Must(template.New(TemplateLeadAcknowledgement).Parse(
			`<p>Hi {{.Name}},</p><p>Thanks for your interest in <b>{{.Course}}</b>. Our team will contact you soon.</p>`)),
	},
	TemplatePromotionsExpired: {
		subject: "Expired promotions deactivated",
		body: template.Must(template.New(TemplatePromotionsExpired).Parse(
			`<p>Coupons deactivated: {{.Coupons}}</p><p>Campaigns deactivated: {{.Campaigns}}</p>`)),
	},
}

// Render returns the subject and HTML body of a named template
func Render(name string, data map[string]any) (string, string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return tmpl.subject, buf.String(), nil
}
