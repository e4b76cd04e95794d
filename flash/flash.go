package flash

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// One-shot notices carried in the session and shown on the next rendered
// page only. Popping clears them.

const (
	keyError   = "error"
	keySuccess = "success"
)

func Error(c *gin.Context, message string) {
	add(c, keyError, message)
}

func Success(c *gin.Context, message string) {
	add(c, keySuccess, message)
}

func add(c *gin.Context, key, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, key)
	save(c, session)
}

// save rewrites the session cookie. Every Save appends another Set-Cookie
// header and clients may honor the first one, so earlier headers are
// dropped to leave a single, current session cookie on the response.
func save(c *gin.Context, session sessions.Session) {
	c.Writer.Header().Del("Set-Cookie")
	session.Save()
}

// Pop returns pending "error" and "success" messages and removes them from
// the session. Handlers pass the result to the template context.
func Pop(c *gin.Context) (errors []string, successes []string) {
	session := sessions.Default(c)
	for _, f := range session.Flashes(keyError) {
		if s, ok := f.(string); ok {
			errors = append(errors, s)
		}
	}
	for _, f := range session.Flashes(keySuccess) {
		if s, ok := f.(string); ok {
			successes = append(successes, s)
		}
	}
	save(c, session)
	return errors, successes
}
