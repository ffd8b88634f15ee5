package locale

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"golang.org/x/text/language"
)

const languageKey = "language"

// Middleware negotiates the response language for each request.
func Middleware(p *Presenter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(languageKey, p.Negotiate(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// Language returns the negotiated language of the request.
func (p *Presenter) Language(c *gin.Context) language.Tag {
	if v, ok := c.Get(languageKey); ok {
		if tag, ok := v.(language.Tag); ok {
			return tag
		}
	}
	return p.Negotiate(c.GetHeader("Accept-Language"))
}

// Render writes the outcome of op. Infrastructure failures only expose the
// generic retry message.
func (p *Presenter) Render(c *gin.Context, op outcome.Operation, res outcome.Result, err error) {
	tag := p.Language(c)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, outcome.ErrRetryable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": p.FailureMessage(tag, op)})
		return
	}

	if !res.OK {
		c.JSON(res.Code, gin.H{
			"error":  p.Describe(tag, res),
			"code":   res.Code,
			"reason": res.Reason,
		})
		return
	}

	body := gin.H{"status": p.Describe(tag, res)}
	if res.Username != "" {
		body["username"] = res.Username
	}
	if res.Permission != "" {
		body["permission"] = res.Permission
	}
	c.JSON(http.StatusOK, body)
}
