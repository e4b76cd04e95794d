package common

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoMethodHandler() (http.Handler, *string) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Method
		w.WriteHeader(http.StatusOK)
	})
	return MethodOverride(handler), &seen
}

func TestMethodOverride_QueryString(t *testing.T) {
	handler, seen := echoMethodHandler()

	req := httptest.NewRequest("POST", "/campgrounds/1?_method=DELETE", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "DELETE", *seen)
}

func TestMethodOverride_FormField(t *testing.T) {
	handler, seen := echoMethodHandler()

	form := url.Values{"_method": {"PUT"}, "name": {"Pine Ridge"}}
	req := httptest.NewRequest("POST", "/campgrounds/1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "PUT", *seen)
}

func TestMethodOverride_PatchAllowed(t *testing.T) {
	handler, seen := echoMethodHandler()

	req := httptest.NewRequest("POST", "/x?_method=PATCH", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "PATCH", *seen)
}

func TestMethodOverride_PlainPostUntouched(t *testing.T) {
	handler, seen := echoMethodHandler()

	req := httptest.NewRequest("POST", "/campgrounds", strings.NewReader("name=Pine+Ridge"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "POST", *seen)
}

func TestMethodOverride_UnknownVerbIgnored(t *testing.T) {
	handler, seen := echoMethodHandler()

	req := httptest.NewRequest("POST", "/x?_method=TRACE", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "POST", *seen)
}

func TestMethodOverride_GetNeverRewritten(t *testing.T) {
	handler, seen := echoMethodHandler()

	req := httptest.NewRequest("GET", "/x?_method=DELETE", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "GET", *seen)
}
