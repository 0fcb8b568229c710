package distribution

import (
	"bytes"
	"fmt"
	"html/template"

	"festpass/internal/attendee"
)

// Subject and body vary by attendee kind; the QR image travels as an
// attachment rather than an inline link so the pass works offline.
var emailTemplates = map[attendee.Kind]struct {
	subject string
	body    *template.Template
}{
	attendee.KindStudent: {
		subject: "Your QR Code",
		body: template.Must(template.New("student").Parse(`<p>Hello {{.Name}},</p>
<p>Your festival pass is attached. Show the QR code at the venue to collect your food coupon and merchandise (t-shirt size {{.TshirtSize}}).</p>
<p>Roll: {{.Roll}} &middot; Dept: {{.Dept}}</p>`)),
	},
	attendee.KindVolunteer: {
		subject: "Your Volunteer Pass",
		body: template.Must(template.New("volunteer").Parse(`<p>Hello {{.Name}},</p>
<p>Your volunteer pass is attached. Show the QR code at the venue to collect your food coupon.</p>
<p>Team: {{.Team}} &middot; Roll: {{.Roll}}</p>`)),
	},
	attendee.KindFaculty: {
		subject: "Your Faculty Pass",
		body: template.Must(template.New("faculty").Parse(`<p>Hello {{.Name}},</p>
<p>Your faculty pass is attached. Show the QR code at the venue to collect your food coupon.</p>
<p>Dept: {{.Dept}}</p>`)),
	},
}

func renderEmail(kind attendee.Kind, att attendee.Attendee) (subject, body string, err error) {
	tpl, ok := emailTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("no email template for kind %q", kind)
	}
	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, att); err != nil {
		return "", "", fmt.Errorf("render email for %s: %w", kind, err)
	}
	return tpl.subject, buf.String(), nil
}
