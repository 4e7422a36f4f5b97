package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dentalia/clinic-api/internal/model"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Appointment confirmed</h2>
<p>Hello {{.PatientName}},</p>
<p>Your appointment has been scheduled:</p>
<ul>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.StartTime}} to {{.EndTime}}</li>
  {{if .Notes}}<li><strong>Notes:</strong> {{.Notes}}</li>{{end}}
</ul>
<p>If you cannot attend, please contact the clinic as soon as possible.</p>
`))

var rescheduledTmpl = template.Must(template.New("rescheduled").Parse(`
<h2>Appointment rescheduled</h2>
<p>Hello {{.PatientName}},</p>
<p>Your appointment has been moved to:</p>
<ul>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.StartTime}} to {{.EndTime}}</li>
</ul>
<p>If the new time does not work for you, please contact the clinic.</p>
`))

var reminderTmpl = template.Must(template.New("reminder").Parse(`
<h2>Appointment reminder</h2>
<p>Hello {{.PatientName}},</p>
<p>This is a reminder of your appointment tomorrow:</p>
<ul>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.StartTime}} to {{.EndTime}}</li>
</ul>
{{if .CancelURL}}
<p>If you cannot attend, you can
<a href="{{.CancelURL}}">request a cancellation</a>{{if .RescheduleURL}}
or <a href="{{.RescheduleURL}}">ask for a different time</a>{{end}}.</p>
{{end}}
<p>The links above expire in 7 days and can be used once.</p>
`))

type reminderData struct {
	model.NotificationPayload
	CancelURL     string
	RescheduleURL string
}

func renderConfirmation(payload model.NotificationPayload) (string, error) {
	return render(confirmationTmpl, payload)
}

func renderRescheduled(payload model.NotificationPayload) (string, error) {
	return render(rescheduledTmpl, payload)
}

func renderReminder(payload model.NotificationPayload, baseURL string) (string, error) {
	data := reminderData{NotificationPayload: payload}
	if payload.CancelToken != "" {
		data.CancelURL = fmt.Sprintf("%s/patient-requests/cancel?token=%s", baseURL, payload.CancelToken)
	}
	if payload.RescheduleToken != "" {
		data.RescheduleURL = fmt.Sprintf("%s/patient-requests/reschedule?token=%s", baseURL, payload.RescheduleToken)
	}
	return render(reminderTmpl, data)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
