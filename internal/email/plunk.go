package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultPlunkURL is the Plunk transactional send endpoint.
const DefaultPlunkURL = "https://api.useplunk.com/v1/send"

// PlunkSender delivers email through the Plunk HTTP API.
type PlunkSender struct {
	apiKey string
	from   string
	url    string
	client *http.Client
}

// NewPlunkSender creates a PlunkSender. An empty url selects DefaultPlunkURL.
func NewPlunkSender(apiKey, from, url string) *PlunkSender {
	if url == "" {
		url = DefaultPlunkURL
	}
	return &PlunkSender{
		apiKey: apiKey,
		from:   from,
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type plunkRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
}

func (p *PlunkSender) Send(ctx context.Context, msg Message) error {
	body := msg.HTML
	if body == "" {
		body = msg.Text
	}
	b, err := json.Marshal(plunkRequest{To: msg.To, Subject: msg.Subject, Body: body, From: p.from})
	if err != nil {
		return fmt.Errorf("marshal plunk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("plunk request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(detail) > 0 {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode, detail)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode)
	}
	return nil
}
