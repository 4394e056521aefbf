// Package chatclient is the thin outbound boundary to the chat platform's
// send API. The core only depends on the Sender interface; notification
// dispatch never knows which transport backs it.
package chatclient

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_sender.go -package=mocks . Sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
)

// Sender delivers a schedule message to a chat user. Implementations wrap
// whatever transport the bot platform exposes.
type Sender interface {
	Send(ctx context.Context, userID int64, message string) error
}

// HTTPSender is a Sender backed by a plain HTTP POST to baseURL + "/send".
// It is deliberately minimal: auth headers, retries, and rate limiting are
// collaborator concerns outside the core.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSender builds an HTTPSender. A nil client gets a default one with a
// bounded timeout so a wedged chat API cannot hang a dispatcher cycle
// forever.
func NewHTTPSender(baseURL string, client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSender{baseURL: baseURL, client: client}
}

type sendRequest struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// Send posts message to the chat API on behalf of userID.
func (s *HTTPSender) Send(ctx context.Context, userID int64, message string) error {
	body, err := json.Marshal(sendRequest{UserID: userID, Message: message})
	if err != nil {
		return cqerrors.NewInternal("chatclient: marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return cqerrors.NewInternal("chatclient: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return cqerrors.NewCancelled("chatclient: send cancelled", err)
		}
		return cqerrors.NewTransient("chatclient: send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return cqerrors.NewTransient("chatclient: server error", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return cqerrors.NewInternal("chatclient: rejected", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// HTTPFetcher resolves a chat platform file reference by GETing it from
// baseURL + "/files/" + fileRef, satisfying pkg/ingress's FileFetcher.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher. A nil client gets the same default
// bounded-timeout client as NewHTTPSender.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{baseURL: baseURL, client: client}
}

// Fetch downloads the referenced file and returns its bytes and the
// server-reported content type.
func (f *HTTPFetcher) Fetch(ctx context.Context, fileRef string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/files/"+fileRef, nil)
	if err != nil {
		return nil, "", cqerrors.NewInternal("chatclient: build fetch request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", cqerrors.NewCancelled("chatclient: fetch cancelled", err)
		}
		return nil, "", cqerrors.NewTransient("chatclient: fetch request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", cqerrors.NewTransient("chatclient: fetch rejected", fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", cqerrors.NewTransient("chatclient: read fetch body", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
