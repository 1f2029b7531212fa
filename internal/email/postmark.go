package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark endpoint.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = u
	}
}

// NewClient creates a Postmark client. baseURL is the public address of the
// app and is used to build links in outgoing mail.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendPasswordReset mails a link to the reset confirmation page.
func (c *Client) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	link := fmt.Sprintf("%s/reset/confirm?token=%s", c.baseURL, url.QueryEscape(token))
	textBody := fmt.Sprintf("Use the link below to choose a new TaskChamp password:\n\n%s\n\nThis link expires in 1 hour. If you did not ask for a reset, ignore this email.", link)
	htmlBody := fmt.Sprintf(
		`<p>Use the link below to choose a new TaskChamp password:</p><p><a href="%s">Reset password</a></p><p>This link expires in 1 hour. If you did not ask for a reset, ignore this email.</p>`,
		link,
	)

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Reset your TaskChamp password",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
