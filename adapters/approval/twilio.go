package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dishcast/dishcast/domain/repositories"
)

const (
	defaultAPIBaseURL     = "https://api.twilio.com/2010-04-01"
	defaultRequestTimeout = 15 * time.Second
	captionPreviewChars   = 160
)

// TwilioConfig holds configuration for the Twilio SMS approval dispatcher.
// Required fields:
// - AccountSID: Your Twilio account SID
// - AuthToken: Your Twilio auth token
// - FromNumber: The sending phone number in E.164 format
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Twilio API (default: "https://api.twilio.com/2010-04-01")
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	APIBaseURL string
}

// NewTwilioConfigFromEnv loads configuration from the environment.
func NewTwilioConfigFromEnv() TwilioConfig {
	return TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		APIBaseURL: os.Getenv("TWILIO_API_BASE_URL"),
	}
}

// ValidateTwilioConfig validates the TwilioConfig
func ValidateTwilioConfig(config TwilioConfig) error {
	if config.AccountSID == "" {
		return fmt.Errorf("twilio account SID is required")
	}
	if config.AuthToken == "" {
		return fmt.Errorf("twilio auth token is required")
	}
	if config.FromNumber == "" {
		return fmt.Errorf("twilio from number is required")
	}
	return nil
}

// TwilioDispatcher implements ApprovalDispatcher over the Twilio Messages
// API.
type TwilioDispatcher struct {
	accountSID string
	authToken  string
	fromNumber string
	apiBaseURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure TwilioDispatcher implements the ApprovalDispatcher interface
var _ repositories.ApprovalDispatcher = (*TwilioDispatcher)(nil)

// NewTwilioDispatcher creates a new Twilio dispatcher instance.
func NewTwilioDispatcher(config TwilioConfig, logger *zap.Logger) (*TwilioDispatcher, error) {
	if err := ValidateTwilioConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	return &TwilioDispatcher{
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		fromNumber: config.FromNumber,
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}, nil
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // error description on failure
}

// Send delivers an approval SMS and returns Twilio's message SID as the
// workflow tracking id.
func (t *TwilioDispatcher) Send(ctx context.Context, req repositories.ApprovalRequest) (string, error) {
	body := approvalBody(req)

	form := url.Values{}
	form.Set("To", req.Destination)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.apiBaseURL, t.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(t.accountSID, t.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	var message twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return "", fmt.Errorf("failed to decode twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio API error (status %d): %s", resp.StatusCode, message.Message)
	}

	t.logger.Info("Approval SMS dispatched",
		zap.String("draft_id", req.DraftID),
		zap.String("platform", req.Platform),
		zap.String("message_sid", message.SID))

	return message.SID, nil
}

// approvalBody renders the SMS text with a bounded caption preview. The cut
// is on a rune boundary so emoji captions stay valid UTF-8.
func approvalBody(req repositories.ApprovalRequest) string {
	preview := req.Caption
	if runes := []rune(preview); len(runes) > captionPreviewChars {
		preview = string(runes[:captionPreviewChars]) + "..."
	}
	return fmt.Sprintf(
		"New %s draft ready for review:\n\n%s\n\nReply YES %s to approve or NO %s to reject.",
		req.Platform, preview, req.DraftID, req.DraftID)
}
