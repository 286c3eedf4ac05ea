// Package resources serves the UI's static assets.
package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves the embedded assets under /static/. When dir is set the
// files are read from disk instead, so stylesheet edits show without a rebuild.
func Handler(dir string) http.Handler {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		fsys, _ = fs.Sub(staticFS, "static")
	}
	fileServer := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dir == "" {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}
		http.StripPrefix("/static/", fileServer).ServeHTTP(w, r)
	})
}

// StaticPath returns the URL path for a static asset.
func StaticPath(path string) string {
	return "/static/" + path
}
