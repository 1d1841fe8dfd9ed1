package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORSPreflightAllowsPatchAndDelete(testContext *testing.T) {
	fixture := newRouterFixture(testContext)

	request := httptest.NewRequest(http.MethodOptions, "/comments/1", http.NoBody)
	request.Header.Set("Origin", "https://app.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		testContext.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}

	allowMethods := recorder.Header().Get("Access-Control-Allow-Methods")
	for _, method := range []string{http.MethodPatch, http.MethodDelete} {
		if !strings.Contains(allowMethods, method) {
			testContext.Fatalf("expected Access-Control-Allow-Methods to include %s, got %q", method, allowMethods)
		}
	}
}
