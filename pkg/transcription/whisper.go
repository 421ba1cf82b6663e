package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ai-companion-be/pkg/errs"
)

// WhisperProvider calls a whisper.cpp compatible server over HTTP.
type WhisperProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewWhisperProvider(baseURL string) Transcriber {
	return &WhisperProvider{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

func (p *WhisperProvider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/inference", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.Client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errs.ProviderTimeout("whisper", err)
		}
		return "", errs.ProviderTransient("whisper", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", errs.ProviderTransient("whisper",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Text), nil
}
