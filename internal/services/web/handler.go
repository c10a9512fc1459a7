package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quorumdeck/quorumdeck/internal/cluster"
	"github.com/quorumdeck/quorumdeck/internal/console"
	"github.com/quorumdeck/quorumdeck/internal/services/web/htmx"
	"github.com/quorumdeck/quorumdeck/internal/services/web/i18n"
	"github.com/quorumdeck/quorumdeck/internal/services/web/platform/sessioncookie"
	"github.com/quorumdeck/quorumdeck/internal/services/web/templates"
)

// submitWait bounds how long a query submission blocks the HTTP response
// before rendering whatever has settled so far.
const submitWait = 5 * time.Second

// statusFetchTimeout bounds a direct status fan-out triggered by a request.
const statusFetchTimeout = 3 * time.Second

// Connector establishes cluster sessions for a connect request. Tests
// substitute fakes; production uses the cluster dialer.
type Connector func(ctx context.Context, cfg cluster.Config) ([]console.Querier, func() error, error)

// HandlerOptions configures the console HTTP handler.
type HandlerOptions struct {
	Registry     *console.Registry
	SessionKey   string
	PollInterval time.Duration
	DialTimeout  time.Duration
	// Connector overrides cluster dialing, used by tests.
	Connector Connector
	// Localizer overrides the default message printer.
	Localizer templates.Localizer
}

// Handler serves the console routes.
type Handler struct {
	registry     *console.Registry
	sessions     *sessionManager
	connector    Connector
	pollInterval time.Duration
	dialTimeout  time.Duration
	loc          templates.Localizer
	mux          *http.ServeMux
}

// NewHandler builds the HTTP handler for the web server.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Registry == nil {
		return nil, errors.New("console registry is required")
	}
	sessions, err := newSessionManager(opts.SessionKey)
	if err != nil {
		return nil, err
	}
	connector := opts.Connector
	if connector == nil {
		connector = defaultConnector
	}
	loc := opts.Localizer
	if loc == nil {
		loc = i18n.Default()
	}

	h := &Handler{
		registry:     opts.Registry,
		sessions:     sessions,
		connector:    connector,
		pollInterval: opts.PollInterval,
		dialTimeout:  opts.DialTimeout,
		loc:          loc,
	}
	h.mux = h.routes()
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("POST /connect", h.connect)
	mux.HandleFunc("GET /console", h.consolePage)
	mux.HandleFunc("POST /console/queries", h.submitQueries)
	mux.HandleFunc("GET /console/status", h.status)
	mux.HandleFunc("POST /console/polling/toggle", h.togglePolling)
	mux.HandleFunc("POST /disconnect", h.disconnect)
	return mux
}

// currentConsole resolves the request's console session from its cookie.
func (h *Handler) currentConsole(r *http.Request) (*console.Console, string, error) {
	token, ok := sessioncookie.Read(r)
	if !ok {
		return nil, "", errors.New("no session cookie")
	}
	id, err := h.sessions.Verify(token)
	if err != nil {
		return nil, "", err
	}
	c, err := h.registry.Get(id)
	if err != nil {
		return nil, "", err
	}
	return c, id, nil
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.currentConsole(r); err == nil {
		http.Redirect(w, r, "/console", http.StatusSeeOther)
		return
	}
	htmx.RenderPage(w, r, nil, templates.ConnectPage(h.loc, templates.ConnectForm{}))
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	form := templates.ConnectForm{
		Endpoints:     r.PostFormValue("endpoints"),
		AppID:         strings.TrimSpace(r.PostFormValue("app_id")),
		SignerAddress: strings.TrimSpace(r.PostFormValue("signer_address")),
	}

	endpoints := splitEndpoints(form.Endpoints)
	switch {
	case len(endpoints) == 0:
		form.Error = templates.T(h.loc, "At least one node endpoint is required")
	case form.AppID == "":
		form.Error = templates.T(h.loc, "An application ID is required")
	case form.SignerAddress == "":
		form.Error = templates.T(h.loc, "A signer address is required")
	}
	if form.Error != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		htmx.RenderPage(w, r, nil, templates.ConnectPage(h.loc, form))
		return
	}

	cfg := cluster.Config{
		Endpoints:     endpoints,
		AppID:         form.AppID,
		SignerAddress: form.SignerAddress,
		PrivateKey:    strings.TrimSpace(r.PostFormValue("private_key")),
		DialTimeout:   h.dialTimeout,
	}

	queriers, closeFn, err := h.connector(r.Context(), cfg)
	if err != nil {
		log.Printf("cluster connect failed: %v", err)
		form.Error = templates.T(h.loc, "Could not connect to the cluster: %v", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		htmx.RenderPage(w, r, nil, templates.ConnectPage(h.loc, form))
		return
	}

	c, err := console.New(queriers, closeFn, h.pollInterval)
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		form.Error = templates.T(h.loc, "Could not open a console: %v", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		htmx.RenderPage(w, r, nil, templates.ConnectPage(h.loc, form))
		return
	}

	id, err := console.NewID()
	if err != nil {
		_ = c.Close()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	token, err := h.sessions.Issue(id)
	if err != nil {
		_ = c.Close()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.registry.Put(id, c)
	sessioncookie.Write(w, r, token)
	http.Redirect(w, r, "/console", http.StatusSeeOther)
}

func (h *Handler) consolePage(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.currentConsole(r)
	if err != nil {
		sessioncookie.Clear(w, r)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view := templates.ConsoleView{
		Output: c.Output(),
		Status: h.statusView(r.Context(), c),
	}
	htmx.RenderPage(w, r, nil, templates.ConsolePage(h.loc, view))
}

func (h *Handler) submitQueries(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.currentConsole(r)
	if err != nil {
		sessioncookie.Clear(w, r)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	pendings := c.SubmitQueries(r.PostFormValue("queries"))
	if len(pendings) > 0 {
		waitCtx, cancel := context.WithTimeout(r.Context(), submitWait)
		if err := c.WaitSettled(waitCtx, pendings); err != nil {
			log.Printf("query batch still settling: %v", err)
		}
		cancel()
	}

	if htmx.IsHTMXRequest(r) {
		htmx.RenderPage(w, r, templates.OutputPanel(h.loc, c.Output()), nil)
		return
	}
	http.Redirect(w, r, "/console", http.StatusSeeOther)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.currentConsole(r)
	if err != nil {
		http.Error(w, "no console session", http.StatusUnauthorized)
		return
	}
	panel := templates.StatusPanel(h.loc, h.statusView(r.Context(), c))
	htmx.RenderPage(w, r, panel, panel)
}

func (h *Handler) togglePolling(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.currentConsole(r)
	if err != nil {
		http.Error(w, "no console session", http.StatusUnauthorized)
		return
	}

	polling := c.Poller().Toggle()
	if htmx.IsHTMXRequest(r) {
		htmx.RenderPage(w, r, templates.PollingToggle(h.loc, polling), nil)
		return
	}
	http.Redirect(w, r, "/console", http.StatusSeeOther)
}

func (h *Handler) disconnect(w http.ResponseWriter, r *http.Request) {
	token, ok := sessioncookie.Read(r)
	if ok {
		if id, err := h.sessions.Verify(token); err == nil {
			if err := h.registry.Delete(id); err != nil {
				log.Printf("close console session: %v", err)
			}
		}
	}
	sessioncookie.Clear(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// statusView renders the latest poll snapshot, falling back to a direct
// fan-out when the poller has not produced one yet.
func (h *Handler) statusView(ctx context.Context, c *console.Console) templates.StatusView {
	snapshot := c.Poller().Snapshot()
	results := snapshot.Results
	taken := snapshot.Taken
	if len(results) == 0 {
		fetchCtx, cancel := context.WithTimeout(ctx, statusFetchTimeout)
		results = c.Dispatcher().Status(fetchCtx)
		cancel()
		taken = time.Now()
	}

	view := templates.StatusView{
		Polling: c.Poller().Running(),
		Taken:   taken.Format("15:04:05"),
	}
	for _, result := range results {
		node := templates.NodeStatusView{Addr: result.Addr}
		switch {
		case result.Err != nil:
			node.Error = result.Err.Error()
		case result.Status != nil:
			node.BlockHash = result.Status.SyncInfo.LatestBlockHash
			node.AppHash = result.Status.SyncInfo.LatestAppHash
			node.BlockHeight = strconv.FormatInt(result.Status.SyncInfo.LatestBlockHeight, 10)
		}
		view.Nodes = append(view.Nodes, node)
	}
	return view
}

// splitEndpoints parses the connect form's endpoint list, accepting commas
// or newlines as separators.
func splitEndpoints(raw string) []string {
	var endpoints []string
	for _, chunk := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	}) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		endpoints = append(endpoints, chunk)
	}
	return endpoints
}
