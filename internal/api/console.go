package api

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var consoleHTML []byte

// serveConsole answers every unmatched request with the admin console.
func serveConsole(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", consoleHTML)
}
