package mail

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	KindActivation      = "activation"
	KindServiceApproved = "service_approved"
)

var (
	activationTmpl = template.Must(template.New("activation").Parse(
		`Thank you for registering {{.ProviderName}} with Service Info.

To activate your account, please follow this link:

{{.Link}}

If you did not register, you can ignore this message.
`))

	approvedTmpl = template.Must(template.New("approved").Parse(
		`Your service "{{.ServiceName}}" has been approved and is now listed in Service Info.
`))
)

// Activation renders the activation email sent after self-registration
func Activation(to, providerName, link string) (Message, error) {
	body, err := render(activationTmpl, map[string]string{
		"ProviderName": providerName,
		"Link":         link,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Activate your Service Info account",
		Body:    body,
		Kind:    KindActivation,
	}, nil
}

// ServiceApproved renders the notification sent when a service becomes current
func ServiceApproved(to, serviceName string) (Message, error) {
	body, err := render(approvedTmpl, map[string]string{"ServiceName": serviceName})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Service approved: %s", serviceName),
		Body:    body,
		Kind:    KindServiceApproved,
	}, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s mail: %w", t.Name(), err)
	}
	return buf.String(), nil
}
