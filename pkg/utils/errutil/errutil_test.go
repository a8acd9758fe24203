package errutil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/folio/pkg/utils/errutil"
)

func TestHandleHTTP(t *testing.T) {
	t.Run("client error exposes message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("message must not be empty"), http.StatusBadRequest)

		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		var body map[string]string
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)).Required()
		gt.Value(t, body["detail"]).Equal("message must not be empty")
	})

	t.Run("server error hides message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("upstream exploded", goerr.V("key", "secret")), http.StatusInternalServerError)

		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		gt.Bool(t, strings.Contains(w.Body.String(), "upstream exploded")).False()
		gt.String(t, w.Body.String()).Contains("Internal Server Error")
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, nil, http.StatusInternalServerError)
		gt.Value(t, w.Body.Len()).Equal(0)
	})
}
