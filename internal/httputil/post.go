// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the provider clients.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/idea-engine/internal/fault"
)

// maxErrorBody bounds how much of an error response is kept in the message.
const maxErrorBody = 512

// PostJSON sends body as JSON to url and decodes a 2xx response into out.
// Every failure is returned as a *fault.ProviderError labelled with
// provider: non-2xx responses carry the status code, and a context
// deadline sets Timeout.
func PostJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &fault.ProviderError{
			Provider: provider,
			Timeout:  errors.Is(err, context.DeadlineExceeded),
			Message:  err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &fault.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(excerpt)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &fault.ProviderError{Provider: provider, Timeout: true, Message: err.Error(), Err: err}
		}
		return &fault.ProviderError{Provider: provider, Message: "decoding response: " + err.Error(), Err: err}
	}
	return nil
}
