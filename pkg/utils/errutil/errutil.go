package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/utils/logging"
)

// Handle logs the error with goerr values and stack and reports it to Sentry.
// Sentry reporting is a no-op unless sentry.Init has been called.
func Handle(ctx context.Context, err error, msg string) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	if hub := sentry.CurrentHub(); hub != nil && hub.Client() != nil {
		hub.CaptureException(err)
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HandleHTTP writes a JSON error body with statusCode. 5xx errors are logged
// and reported, and their message is not exposed to the client.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	detail := err.Error()
	if statusCode >= http.StatusInternalServerError {
		Handle(ctx, err, "HTTP error")
		detail = http.StatusText(statusCode)
	} else {
		logging.From(ctx).Warn("HTTP client error", "status", statusCode, "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: detail})
}
