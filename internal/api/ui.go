package api

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Embedded status page assets.
//
//go:embed static
var embeddedUI embed.FS

// mountUI serves the single-page status UI at /, leaving /api routes
// untouched.
func mountUI(r *gin.Engine, logger *slog.Logger) {
	fs, err := static.EmbedFolder(embeddedUI, "static")
	if err != nil {
		panic("api: embedded UI filesystem: " + err.Error())
	}
	r.Use(static.Serve("/", fs))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
			return
		}
		index, err := fs.Open("index.html")
		if err != nil {
			logger.Error("open embedded index.html", "error", err)
			c.Status(http.StatusNotFound)
			return
		}
		defer index.Close()
		info, err := index.Stat()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		http.ServeContent(c.Writer, c.Request, "index.html", info.ModTime(), index)
	})
}
