package flash

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type popped struct {
	Errors    []string `json:"errors"`
	Successes []string `json:"successes"`
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))

	router.GET("/set", func(c *gin.Context) {
		Error(c, "bad thing")
		Success(c, "good thing")
		c.Status(http.StatusOK)
	})
	router.GET("/pop", func(c *gin.Context) {
		errs, successes := Pop(c)
		c.JSON(http.StatusOK, popped{Errors: errs, Successes: successes})
	})

	return router
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFlash_RoundTrip(t *testing.T) {
	router := setupTestRouter()

	w := get(router, "/set", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	assert.NotEmpty(t, cookies)

	w = get(router, "/pop", cookies)
	var got popped
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"bad thing"}, got.Errors)
	assert.Equal(t, []string{"good thing"}, got.Successes)
}

func TestFlash_SingleSessionCookie(t *testing.T) {
	router := setupTestRouter()

	// two flashes in one request must not leave competing session cookies
	w := get(router, "/set", nil)
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestFlash_PoppedOnlyOnce(t *testing.T) {
	router := setupTestRouter()

	w := get(router, "/set", nil)
	cookies := w.Result().Cookies()

	w = get(router, "/pop", cookies)
	// popping rewrites the session cookie without the flashes
	cookies = w.Result().Cookies()
	assert.NotEmpty(t, cookies)

	w = get(router, "/pop", cookies)
	var got popped
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.Errors)
	assert.Empty(t, got.Successes)
}

func TestFlash_EmptySession(t *testing.T) {
	router := setupTestRouter()

	w := get(router, "/pop", nil)
	var got popped
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Empty(t, got.Errors)
	assert.Empty(t, got.Successes)
}
