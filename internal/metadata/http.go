package metadata

import (
	"context"
	"net/http"
	"net/url"

	"reelscan/internal/editmap"
	"reelscan/internal/services/rest"
)

// HTTPReporter writes to the metadata API:
//
//	PUT {base}/edit-maps/{id}/status  body: StatusUpdate
//	PUT {base}/edit-maps/{id}         body: EditMap
type HTTPReporter struct {
	client *rest.Client
}

// NewHTTPReporter wraps a REST client.
func NewHTTPReporter(client *rest.Client) *HTTPReporter {
	return &HTTPReporter{client: client}
}

// UpdateStatus implements Reporter.
func (r *HTTPReporter) UpdateStatus(ctx context.Context, editMapID string, update editmap.StatusUpdate) error {
	if err := checkID(editMapID); err != nil {
		return err
	}
	return r.client.DoJSON(ctx, http.MethodPut, "edit-maps/"+url.PathEscape(editMapID)+"/status", update, nil)
}

// WriteEditMap implements Reporter.
func (r *HTTPReporter) WriteEditMap(ctx context.Context, editMapID string, result editmap.EditMap) error {
	if err := checkID(editMapID); err != nil {
		return err
	}
	return r.client.DoJSON(ctx, http.MethodPut, "edit-maps/"+url.PathEscape(editMapID), result, nil)
}
