// Package web serves the Voxara pages: the signed-in home and create pages
// behind the session gate, the sign-in page, and the static assets.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bluescreen10/voxara/auth"
	"github.com/bluescreen10/voxara/etag"
	"github.com/bluescreen10/voxara/httpx"
	"github.com/bluescreen10/voxara/media"
	"github.com/bluescreen10/voxara/session"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const flashKey = "flash"

// Templates returns the embedded page templates.
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Assets returns the embedded static files served under /static/.
func Assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Creator runs the photo to video pipeline. *media.Pipeline implements it.
type Creator interface {
	Create(ctx context.Context, transcript, photoKey, voiceKey string) (media.Result, error)
}

// Importer copies a voice sample from a URL into the media bucket.
// *media.Client implements it.
type Importer interface {
	ImportFile(ctx context.Context, req media.ImportRequest) (media.ImportResponse, error)
}

type Options struct {
	Sessions *session.Manager
	Auth     auth.Service
	Accounts auth.Accounts
	Creator  Creator
	// Importer is optional. Without it the create form has no voice
	// sample URL field.
	Importer Importer
	Logger   *slog.Logger

	// Templates overrides the embedded templates, e.g. with os.DirFS
	// during development.
	Templates fs.FS
	// ReloadTemplates re-reads templates on every render.
	ReloadTemplates bool
}

type Handler struct {
	renderer *httpx.Renderer
	sessions *session.Manager
	auth     auth.Service
	accounts auth.Accounts
	creator  Creator
	importer Importer
	logger   *slog.Logger
	reload   bool
}

func New(opts Options) (*Handler, error) {
	if opts.Sessions == nil || opts.Auth == nil || opts.Accounts == nil || opts.Creator == nil {
		return nil, errors.New("web: sessions, auth, accounts and creator are required")
	}

	templates := opts.Templates
	if templates == nil {
		templates = Templates()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		renderer: httpx.NewRenderer(templates, ".html"),
		sessions: opts.Sessions,
		auth:     opts.Auth,
		accounts: opts.Accounts,
		creator:  opts.Creator,
		importer: opts.Importer,
		logger:   logger,
		reload:   opts.ReloadTemplates,
	}, nil
}

// Routes registers every page on mux. Gated pages run the session gate
// before the session middleware so an anonymous request is redirected
// without touching the session store again.
func (h *Handler) Routes(mux *httpx.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Static("/static/", Assets(), etag.New(etag.WithCache(true)).Handler)

	withSession := h.sessions.Handler
	mux.Handle("GET /auth/sign-in", httpx.Chain(http.HandlerFunc(h.signInForm),
		auth.RedirectIfAuthenticated(h.auth, "/", h.logger), withSession))
	mux.Handle("POST /auth/sign-in", httpx.Chain(http.HandlerFunc(h.signIn), withSession))
	mux.Handle("POST /auth/sign-out", httpx.Chain(http.HandlerFunc(h.signOut), withSession))

	app := mux.Group("", auth.Require(h.auth, auth.DefaultSignInPath, h.logger), withSession)
	app.HandleFunc("GET /{$}", h.home)
	app.HandleFunc("GET /create", h.createForm)
	app.HandleFunc("POST /create", h.create)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// page collects the values every template expects.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (httpx.Vals, *message.Printer) {
	p, tag := Printer(r)
	w.Header().Set("Content-Language", tag.String())
	w.Header().Add("Vary", "Accept-Language")

	vals := httpx.Vals{
		"T":          p,
		"Lang":       langCode(tag),
		"Path":       r.URL.Path,
		"Breadcrumb": BreadcrumbLabel(r.URL.Path, p),
		"Flash":      h.sessions.Get(r).Pop(flashKey),
	}
	if sess := auth.FromContext(r.Context()); sess != nil {
		vals["User"] = sess
	}
	return vals, p
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, vals httpx.Vals, layouts ...string) {
	if h.reload {
		h.renderer.Reload()
	}

	if err := h.renderer.HtmlStatus(w, status, name, vals, layouts...); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func langCode(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
