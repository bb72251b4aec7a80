package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultPushEndpoint = "https://fcm.googleapis.com/fcm/send"

// Pusher delivers push notices over the FCM legacy HTTP API. Like the mailer
// it is a successful no-op when unconfigured or in the test environment.
type Pusher struct {
	ServerKey string
	Endpoint  string
	Env       string
	Client    *http.Client
}

type pushPayload struct {
	To           string    `json:"to"`
	Notification pushAlert `json:"notification"`
}

type pushAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (p *Pusher) Send(ctx context.Context, n Notification) error {
	if n.PushToken == "" {
		return nil
	}
	if p.ServerKey == "" || p.Env == "test" {
		return nil
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = defaultPushEndpoint
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(pushPayload{
		To:           n.PushToken,
		Notification: pushAlert{Title: n.Subject, Body: n.Body},
	})
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+p.ServerKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("send push: provider returned %s", resp.Status)
	}
	return nil
}
