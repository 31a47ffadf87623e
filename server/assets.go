package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed assets
var assetsFS embed.FS

var pageTemplate = template.Must(
	template.ParseFS(assetsFS, "assets/index.html.tmpl"),
)

// assetsHandler serves the static page assets
func assetsHandler() http.Handler {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err) // embedded tree is fixed at build time
	}

	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}
