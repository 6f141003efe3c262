package controller

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ArtifactsHandler serves the files of fsys read-only. The request path, with
// prefix stripped, is the artifact name. Only GET and HEAD are allowed and
// directory listings are not exposed.
func ArtifactsHandler(prefix string, fsys fs.FS) http.Handler {
	files := http.FileServerFS(fsys)

	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)

			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || strings.HasPrefix(path.Base(name), ".") {
			http.NotFound(w, r)

			return
		}
		if st, err := fs.Stat(fsys, name); err != nil || st.IsDir() {
			http.NotFound(w, r)

			return
		}

		if path.Ext(name) == ".json" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		files.ServeHTTP(w, r)
	}))
}
