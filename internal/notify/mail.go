package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultMailEndpoint = "https://api.brevo.com/v3/smtp/email"

// Mailer sends transactional email through a Brevo-style JSON API. With no
// API key configured, or in the test environment, every send is a successful
// no-op so local and CI runs never reach out to the provider.
type Mailer struct {
	APIKey     string
	Endpoint   string
	SenderName string
	SenderMail string
	Env        string
	Client     *http.Client
}

type mailPayload struct {
	Sender      mailAddress   `json:"sender"`
	To          []mailAddress `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
}

type mailAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

func (m *Mailer) Send(ctx context.Context, n Notification) error {
	if n.Email == "" {
		return nil
	}
	if m.APIKey == "" || m.Env == "test" {
		return nil
	}

	endpoint := m.Endpoint
	if endpoint == "" {
		endpoint = defaultMailEndpoint
	}
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(mailPayload{
		Sender:      mailAddress{Name: m.SenderName, Email: m.SenderMail},
		To:          []mailAddress{{Email: n.Email}},
		Subject:     n.Subject,
		HTMLContent: "<p>" + n.Body + "</p>",
	})
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send mail: provider returned %s", resp.Status)
	}
	return nil
}
