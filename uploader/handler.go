package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BatchResult is the production-mode response body for one upload batch.
// moderation_results is always present, even when the batch is empty or
// moderation was skipped.
type BatchResult struct {
	Processed         int              `json:"processed"`
	Uploaded          int              `json:"uploaded"`
	Failed            int              `json:"failed"`
	Flagged           int              `json:"flagged"`
	TxIDs             []string         `json:"tx_ids"`
	ModerationResults []EchoModeration `json:"moderation_results"`
}

// testBatchResult is the test-mode response body. It carries mode and
// message instead of moderation results.
type testBatchResult struct {
	Mode      string   `json:"mode"`
	Processed int      `json:"processed"`
	Uploaded  int      `json:"uploaded"`
	Failed    int      `json:"failed"`
	Flagged   int      `json:"flagged"`
	TxIDs     []string `json:"tx_ids"`
	Message   string   `json:"message"`
}

// EchoModeration is the per-echo moderation summary included in the response.
type EchoModeration struct {
	EchoID string `json:"echo_id"`
	IsSafe bool   `json:"is_safe"`
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}

type arweavePayload struct {
	Type        string `json:"type"`
	App         string `json:"app"`
	Version     string `json:"version"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	CreatedAt   string `json:"created_at"`
	UserIDHash  string `json:"user_id_hash"`
	Moderation  string `json:"moderation"`
}

var arweaveTags = []Tag{
	{Name: "App-Name", Value: "Wandern"},
	{Name: "Content-Type", Value: "application/json"},
	{Name: "Type", Value: "geo-echo"},
	{Name: "Moderation-Status", Value: "approved"},
}

// handleUploadBatch runs the batch flow: query echoes marked permanent but
// not yet uploaded, run each through the final moderation checkpoint, upload
// approved ones to Arweave and record the transaction ID.
func (s *Server) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "3600")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	logger := s.logger.With().Str("request_id", uuid.NewString()).Logger()

	priorityOnly := r.URL.Query().Get("priority_only") == "true"
	testMode := r.URL.Query().Get("test_mode") == "true"
	skipModeration := r.URL.Query().Get("skip_moderation") == "true"

	if testMode {
		s.handleTestMode(w, r, logger)
		return
	}

	result, err := s.runBatch(r.Context(), logger, priorityOnly, skipModeration)
	if err != nil {
		logger.Error().Err(err).Msg("batch upload failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":    fmt.Sprintf("Database connection failed: %v", err),
			"instance": s.cfg.InstanceConnectionName,
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleTestMode uploads a mock echo without touching the database.
func (s *Server) handleTestMode(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) {
	mock := map[string]string{
		"echo_id":    "test_echo_001",
		"content":    "Test Geo Echo for Arweave upload",
		"location":   "40.7128,-74.0060",
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	payload, _ := json.Marshal(mock)
	txID, err := s.bundler.Upload(r.Context(), payload, nil)
	if err != nil {
		logger.Error().Err(err).Msg("test upload failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, testBatchResult{
		Mode:      "test",
		Processed: 1,
		Uploaded:  1,
		TxIDs:     []string{txID},
		Message:   "Test mode - no database connection used",
	})
}

func (s *Server) runBatch(ctx context.Context, logger zerolog.Logger, priorityOnly, skipModeration bool) (*BatchResult, error) {
	echoes, err := s.store.PendingUploads(ctx, priorityOnly)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		TxIDs:             []string{},
		ModerationResults: []EchoModeration{},
	}
	for _, echo := range echoes {
		result.Processed++

		if !skipModeration {
			content := echo.Content
			if content == "" {
				content = echo.Title
			}
			verdict := s.moderator.Check(ctx, content, echo.ContentType, echo.MediaURL)

			result.ModerationResults = append(result.ModerationResults, EchoModeration{
				EchoID: echo.EchoID,
				IsSafe: verdict.IsSafe,
				Status: verdict.ModerationStatus,
				Model:  verdict.ModelUsed,
			})

			if !verdict.IsSafe {
				reason := verdict.FlagReason
				if reason == "" {
					reason = "Pre-Arweave check failed"
				}
				logger.Warn().
					Str("echo_id", echo.EchoID).
					Str("reason", reason).
					Msg("echo blocked from arweave")
				if err := s.store.MarkFlagged(ctx, echo.EchoID, reason); err != nil {
					logger.Error().Err(err).Str("echo_id", echo.EchoID).Msg("failed to flag echo")
					result.Failed++
					continue
				}
				result.Flagged++
				continue
			}
		}

		txID, err := s.uploadEcho(ctx, echo)
		if err != nil {
			logger.Error().Err(err).Str("echo_id", echo.EchoID).Msg("failed to process echo")
			result.Failed++
			continue
		}

		result.Uploaded++
		result.TxIDs = append(result.TxIDs, txID)
		logger.Info().
			Str("echo_id", echo.EchoID).
			Str("tx_id", txID).
			Msg("echo uploaded to arweave")
	}

	return result, nil
}

func (s *Server) uploadEcho(ctx context.Context, echo Echo) (string, error) {
	payload, err := json.Marshal(arweavePayload{
		Type:        "geo-echo",
		App:         "wandern",
		Version:     "1.0",
		Title:       echo.Title,
		Content:     echo.Content,
		ContentType: echo.ContentType,
		CreatedAt:   echo.CreatedAt.UTC().Format(time.RFC3339Nano),
		UserIDHash:  hashUserID(echo.CreatorUserID),
		Moderation:  "approved",
	})
	if err != nil {
		return "", err
	}

	txID, err := s.bundler.Upload(ctx, payload, arweaveTags)
	if err != nil {
		return "", err
	}

	if err := s.store.MarkUploaded(ctx, echo.EchoID, txID); err != nil {
		return "", err
	}
	return txID, nil
}

// hashUserID keeps the creator pseudonymous in the permanent record.
func hashUserID(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return fmt.Sprintf("%d", h.Sum32())
}
