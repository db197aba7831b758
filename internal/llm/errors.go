package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sashabaranov/go-openai"
)

var errNoChoices = errors.New("no choices returned")

// ProviderError is an application-level error returned inside a 200 response
// body, as OpenRouter does when an upstream provider fails.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
	}
	return "provider error: " + e.Message
}

// RetryExhaustedError is returned once every attempt has failed.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("API Error: giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// envelopeDoer turns successful HTTP responses that carry an error object
// into a ProviderError before go-openai decodes them.
type envelopeDoer struct {
	next openai.HTTPDoer
}

func (d envelopeDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.next.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if pe := decodeEnvelopeError(body); pe != nil {
		return nil, pe
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func decodeEnvelopeError(body []byte) *ProviderError {
	var envelope struct {
		Error *struct {
			Code    json.RawMessage `json:"code"`
			Message string          `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return nil
	}

	pe := &ProviderError{Message: envelope.Error.Message}
	code := bytes.Trim(envelope.Error.Code, `"`)
	if n, err := strconv.Atoi(string(code)); err == nil {
		pe.Code = n
	}
	if pe.Message == "" {
		pe.Message = "unknown error"
	}
	return pe
}
