package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"urlshort/internal/apperr"
	"urlshort/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRespondError(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err)
	return w
}

func TestRespondErrorWithKnownTaxonomyCode(t *testing.T) {
	w := performRespondError(apperr.URLExpired())
	if w.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", w.Code)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != string(apperr.CodeURLExpired) {
		t.Fatalf("expected error code %q, got %q", apperr.CodeURLExpired, body.Error)
	}
}

func TestRespondErrorWithUnrecognizedErrorFallsBackTo500(t *testing.T) {
	w := performRespondError(errors.New("something unexpected"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR code, got %q", body.Error)
	}
}

func TestRespondErrorIncludesDetails(t *testing.T) {
	w := performRespondError(apperr.AliasTaken("alias taken", []string{"alt-1", "alt-2"}))
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Details) != 2 {
		t.Fatalf("expected 2 suggestion details, got %v", body.Details)
	}
}
