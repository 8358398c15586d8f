package httpapi

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"promptpix/internal/http/handlers"
	mw "promptpix/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Options controls the non-API surface of the router.
type Options struct {
	PublicDir   string
	OutputDir   string
	CORSOrigins []string
	Logger      zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mw.Logger(opts.Logger),
		mw.CORS(opts.CORSOrigins),
	)

	r.Get("/health", app.Health)
	r.Get("/debug", app.Debug)
	r.Get("/styles", app.Styles)

	r.Post("/generate", app.Generate)
	r.Post("/api/generate", app.Generate)

	if opts.OutputDir != "" {
		r.Handle("/out/*", http.StripPrefix("/out/", noListing(http.FileServer(http.Dir(opts.OutputDir)))))
	}
	if opts.PublicDir != "" {
		r.Get("/*", spaHandler(opts.PublicDir))
	}

	return r
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves files from dir. Extension-less paths that name no file are
// client-side routes and get index.html; a missing asset such as
// /styles/noir.jpg is a 404.
func spaHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean)))
			if err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
			if path.Ext(clean) != "" {
				http.NotFound(w, r)
				return
			}
		}
		serveIndex(w, r, index)
	}
}

func serveIndex(w http.ResponseWriter, r *http.Request, index string) {
	f, err := os.Open(index)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", info.ModTime(), f)
}
