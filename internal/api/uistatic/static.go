// Package uistatic serves the browser chat client.
package uistatic

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed all:app
var distFS embed.FS

// Handler serves files from dir, or the built-in client when dir is empty.
// Paths that do not name a file fall back to index.html.
func Handler(dir string) http.Handler {
	if dir != "" {
		return FSHandler(os.DirFS(dir))
	}
	sub, err := fs.Sub(distFS, "app")
	if err != nil {
		return http.NotFoundHandler()
	}
	return FSHandler(sub)
}

func FSHandler(filesystem fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(filesystem))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := path.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		if cleanPath == "." || cleanPath == "" || cleanPath == "index.html" {
			serveIndex(w, r, filesystem)
			return
		}

		if info, err := fs.Stat(filesystem, cleanPath); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		serveIndex(w, r, filesystem)
	})
}

func serveIndex(w http.ResponseWriter, r *http.Request, filesystem fs.FS) {
	index, err := filesystem.Open("index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = index.Close() }()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.Copy(w, index)
}
