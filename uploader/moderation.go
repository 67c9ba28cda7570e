package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const moderationTimeout = 60 * time.Second

// ModerationResult is the moderation agent's verdict for one piece of
// content. A zero value means unsafe.
type ModerationResult struct {
	IsSafe           bool   `json:"is_safe"`
	ModerationStatus string `json:"moderation_status"`
	FlagReason       string `json:"flag_reason,omitempty"`
	ModelUsed        string `json:"model_used,omitempty"`
}

// Moderator runs the final safety check before permanent storage.
type Moderator interface {
	Check(ctx context.Context, content, contentType, mediaURL string) ModerationResult
}

type moderationRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	MediaURL    string `json:"media_url,omitempty"`
}

type ModerationClient struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

func NewModerationClient(url string, logger zerolog.Logger) *ModerationClient {
	return &ModerationClient{
		url:    url,
		client: &http.Client{Timeout: moderationTimeout},
		logger: logger,
	}
}

// Check posts content to the moderation agent. Any transport or decode
// failure fails closed: content that cannot be verified is never uploaded.
func (m *ModerationClient) Check(ctx context.Context, content, contentType, mediaURL string) ModerationResult {
	body, err := json.Marshal(moderationRequest{
		Content:     content,
		ContentType: contentType,
		MediaURL:    mediaURL,
	})
	if err != nil {
		return m.failClosed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return m.failClosed(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return m.failClosed(err)
	}
	defer resp.Body.Close()

	var result ModerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return m.failClosed(err)
	}

	m.logger.Info().
		Bool("is_safe", result.IsSafe).
		Str("status", result.ModerationStatus).
		Msg("pre-arweave moderation result")
	return result
}

func (m *ModerationClient) failClosed(err error) ModerationResult {
	m.logger.Error().Err(err).Msg("moderation agent call failed")
	return ModerationResult{
		IsSafe:           false,
		ModerationStatus: "error",
		FlagReason:       fmt.Sprintf("Moderation check failed: %v", err),
	}
}
