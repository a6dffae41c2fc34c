package labhttp

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"apilab/internal/board"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pageFuncs = template.FuncMap{
	"statusClass": func(s board.Status) string {
		if s == "" {
			return "status-idle"
		}
		return "status-" + string(s)
	},
	"isImage": func(u board.Unit) bool { return u.Card.IsImage() },
	"upper":   strings.ToUpper,
	"health":  func(u board.Unit) *healthView { return healthOf(u.State.Result) },
	// html/template rewrites data: URLs unless they are marked safe.
	"imageSrc": func(input string) template.URL {
		if strings.HasPrefix(input, "data:image/") {
			return template.URL(input)
		}
		return ""
	},
}

func loadTemplates(router *gin.Engine) error {
	tmpl, err := template.New("lab").Funcs(pageFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}

func serveStatic(router *gin.Engine) error {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(sub))
	router.GET("/static/*filepath", func(c *gin.Context) {
		c.Request.URL.Path = c.Param("filepath")
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
	return nil
}
