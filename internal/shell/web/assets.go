package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// templateFuncs are the helpers available inside page templates.
var templateFuncs = template.FuncMap{
	"brl":     formatBRL,
	"slugify": slugify,
}

// parseTemplates loads the embedded page templates.
func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// formatBRL renders a price the Brazilian way: "R$ 89,90".
func formatBRL(price *float64) string {
	if price == nil {
		return ""
	}
	return "R$ " + strings.Replace(strconv.FormatFloat(*price, 'f', 2, 64), ".", ",", 1)
}

// slugify turns a label into a css-safe class suffix ("Ultima Unidade" ->
// "ultima-unidade"). It accepts any stringish value so named string types
// from the domain work directly in templates.
func slugify(v interface{}) string {
	s := fmt.Sprint(v)
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// staticHandler serves the embedded static assets under /static/.
func staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")

		content, err := fs.ReadFile(staticFS, urlPath)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		// Set content type based on extension
		contentType := "application/octet-stream"
		switch {
		case strings.HasSuffix(urlPath, ".html"):
			contentType = "text/html; charset=utf-8"
		case strings.HasSuffix(urlPath, ".js"):
			contentType = "application/javascript"
		case strings.HasSuffix(urlPath, ".css"):
			contentType = "text/css"
		case strings.HasSuffix(urlPath, ".svg"):
			contentType = "image/svg+xml"
		case strings.HasSuffix(urlPath, ".json"):
			contentType = "application/json"
		case strings.HasSuffix(urlPath, ".png"):
			contentType = "image/png"
		case strings.HasSuffix(urlPath, ".ico"):
			contentType = "image/x-icon"
		case strings.HasSuffix(urlPath, ".woff"):
			contentType = "font/woff"
		case strings.HasSuffix(urlPath, ".woff2"):
			contentType = "font/woff2"
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(content)
	})
}
