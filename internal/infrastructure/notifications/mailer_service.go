package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
)

// MailerServiceImpl implements domain.MailerService against the portal's
// internal mail dispatch endpoint (POST /api/send-email with
// {to, subject, template, data}).
type MailerServiceImpl struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewMailerService creates a mailer client for the given portal base URL.
func NewMailerService(baseURL string, log zerolog.Logger) domain.MailerService {
	return &MailerServiceImpl{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type sendEmailRequest struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// SendMagicCode implements domain.MailerService. When no mailer is
// configured the message is logged instead of sent, which keeps local
// development working without a mail service.
func (m *MailerServiceImpl) SendMagicCode(ctx context.Context, to, studentName, code string, expiryMinutes int) error {
	if m.baseURL == "" {
		m.log.Info().Str("to", to).Str("code", code).Msg("mailer not configured, logging magic code instead")
		return nil
	}

	payload := sendEmailRequest{
		To:       to,
		Subject:  "Your ODeL login code",
		Template: "magic_code",
		Data: map[string]any{
			"code":          code,
			"studentName":   studentName,
			"expiryMinutes": expiryMinutes,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/send-email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to dispatch email: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailer returned HTTP %d", resp.StatusCode)
	}
	return nil
}

var _ domain.MailerService = (*MailerServiceImpl)(nil)
