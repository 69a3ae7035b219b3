package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"reelscan/internal/editmap"
	"reelscan/internal/services"
	"reelscan/internal/services/rest"
)

// HTTPService talks to a remote speech-to-text job API:
//
//	POST   {base}/jobs              start a job (JobRequest body)
//	GET    {base}/jobs/{name}        poll (JobStatus body)
//	GET    {base}/jobs/{name}/result transcript (Transcript body)
//	DELETE {base}/jobs/{name}        cancel
type HTTPService struct {
	client *rest.Client
}

// NewHTTPService wraps a REST client.
func NewHTTPService(client *rest.Client) *HTTPService {
	return &HTTPService{client: client}
}

// Start implements Service.
func (s *HTTPService) Start(ctx context.Context, req JobRequest) error {
	if req.MediaURI == "" {
		return services.Wrap(services.ErrValidation, "transcription", "start", "remote jobs need a staged media uri", nil)
	}
	return classify(s.client.DoJSON(ctx, http.MethodPost, "jobs", req, nil))
}

// Status implements Service.
func (s *HTTPService) Status(ctx context.Context, name string) (JobStatus, error) {
	var status JobStatus
	err := s.client.DoJSON(ctx, http.MethodGet, "jobs/"+url.PathEscape(name), nil, &status)
	if err != nil {
		return JobStatus{}, classify(err)
	}
	switch status.State {
	case StateQueued, StateInProgress, StateCompleted, StateFailed:
		return status, nil
	default:
		return JobStatus{}, fmt.Errorf("unknown job state %q", status.State)
	}
}

// Result implements Service.
func (s *HTTPService) Result(ctx context.Context, name string) ([]editmap.Token, error) {
	var transcript Transcript
	if err := s.client.DoJSON(ctx, http.MethodGet, "jobs/"+url.PathEscape(name)+"/result", nil, &transcript); err != nil {
		return nil, classify(err)
	}
	return transcript.Tokens()
}

// Cancel implements Canceler.
func (s *HTTPService) Cancel(ctx context.Context, name string) error {
	err := s.client.DoJSON(ctx, http.MethodDelete, "jobs/"+url.PathEscape(name), nil, nil)
	if rest.IsNotFound(err) {
		return nil
	}
	return classify(err)
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case rest.IsNotFound(err):
		return fmt.Errorf("%w: %w", services.ErrNotFound, err)
	case rest.IsTransient(err):
		return fmt.Errorf("%w: %w", services.ErrTransient, err)
	default:
		return err
	}
}
