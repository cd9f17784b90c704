// internal/router/router.go
package router

import (
	"net/http"

	"bookgate/internal/auth"
	"bookgate/internal/authz"
	"bookgate/internal/httputils"
	"bookgate/internal/observability/logging"

	"github.com/gorilla/mux"
)

// Access tells what a route requires from the caller
type Access string

const (
	// Public routes are served to anyone
	Public Access = "public"
	// Authorized routes require every action of the rule on its object
	Authorized Access = "authorized"
)

// Rule defines one route of the API
type Rule struct {
	// Name is a unique identifier for the rule
	Name string

	// Paths is a list of URL paths, relative to the API prefix
	Paths []string

	// Methods is a list of HTTP methods this rule applies to
	Methods []string

	// Access determines what the caller must hold
	Access Access

	// Object is the resource class checked for Authorized rules
	Object string

	// Actions are the actions required on Object
	Actions []string

	// Handler serves the matched request
	Handler http.Handler
}

// Config holds router configuration
type Config struct {
	// Prefix is the path prefix every route is mounted under
	Prefix string

	// ApplicationName is reported by the root document
	ApplicationName string

	// LoginLink is reported by the root document
	LoginLink string

	// Rules is the list of routes
	Rules []Rule
}

// Router serves the API routes and gates each one according to its rule
type Router struct {
	*mux.Router
	authorizer authz.Authorizer
	logger     *logging.Logger
}

// New creates a new router
func New(config Config, authorizer authz.Authorizer, logger *logging.Logger) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		authorizer: authorizer,
		logger:     logger.WithModule("router"),
	}

	api := r.Router
	if config.Prefix != "" {
		api = r.PathPrefix(config.Prefix).Subrouter()
	}

	r.setupRoutes(api, config)
	return r
}

// setupRoutes configures routes based on rules
func (r *Router) setupRoutes(api *mux.Router, config Config) {
	for _, rule := range config.Rules {
		r.logger.Debug("Setting up route",
			"name", rule.Name,
			"access", rule.Access,
			"paths", rule.Paths,
			"methods", rule.Methods,
		)

		handler := rule.Handler
		switch rule.Access {
		case Public:
		case Authorized:
			handler = r.authorizer.Middleware(rule.Object, rule.Actions...)(handler)
		default:
			r.logger.Warn("Unknown access in rule, defaulting to deny",
				"rule", rule.Name, "access", rule.Access)
			handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				httputils.WriteForbidden(w)
			})
		}

		for _, path := range rule.Paths {
			api.Handle(path, handler).Methods(rule.Methods...).Name(rule.Name)
		}
	}

	root := rootDocument{
		ApplicationName: config.ApplicationName,
		LoginLink:       config.LoginLink,
		Authorization:   "Log in at login_url and send the access token as 'Authorization: Bearer <token>'",
	}
	api.Path("/").Methods(http.MethodGet).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = httputils.WriteJSON(w, http.StatusOK, root)
	})

	notFound := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logging.FromContext(req.Context(), r.logger).Debug("Request received for undefined route", "path", req.URL.Path)
		httputils.WriteError(w, http.StatusNotFound, "Not Found")
	})
	r.NotFoundHandler = notFound
	api.NotFoundHandler = notFound

	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputils.WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.MethodNotAllowedHandler = methodNotAllowed
	api.MethodNotAllowedHandler = methodNotAllowed
}

// rootDocument describes the API and how to obtain a token
type rootDocument struct {
	ApplicationName string `json:"application"`
	LoginLink       string `json:"login_url"`
	Authorization   string `json:"authorization"`
}

// Handlers are the endpoint implementations mounted by Rules
type Handlers struct {
	ListBooks   http.HandlerFunc
	GetBook     http.HandlerFunc
	CreateBook  http.HandlerFunc
	ReplaceBook http.HandlerFunc
	PatchBook   http.HandlerFunc
	DeleteBook  http.HandlerFunc
	Login       http.Handler
	Callback    http.Handler
}

// Rules returns the API routes and their protection
func Rules(h Handlers) []Rule {
	const bookID = "/books/{id:[0-9]+}"
	collection := []string{"/books", "/books/"}

	return []Rule{
		{Name: "books.list", Paths: collection, Methods: []string{http.MethodGet}, Access: Public, Handler: h.ListBooks},
		{Name: "books.get", Paths: []string{bookID}, Methods: []string{http.MethodGet}, Access: Public, Handler: h.GetBook},
		{Name: "books.create", Paths: collection, Methods: []string{http.MethodPost}, Access: Authorized, Object: "book", Actions: []string{"write"}, Handler: h.CreateBook},
		{Name: "books.replace", Paths: []string{bookID}, Methods: []string{http.MethodPut}, Access: Authorized, Object: "book", Actions: []string{"write"}, Handler: h.ReplaceBook},
		{Name: "books.patch", Paths: []string{bookID}, Methods: []string{http.MethodPatch}, Access: Authorized, Object: "book", Actions: []string{"write"}, Handler: h.PatchBook},
		{Name: "books.delete", Paths: []string{bookID}, Methods: []string{http.MethodDelete}, Access: Authorized, Object: "book", Actions: []string{"admin"}, Handler: h.DeleteBook},
		{Name: "auth.login", Paths: []string{"/auth/login"}, Methods: []string{http.MethodGet}, Access: Public, Handler: h.Login},
		{Name: "auth.callback", Paths: []string{"/auth/callback"}, Methods: []string{http.MethodGet}, Access: Public, Handler: h.Callback},
		{Name: "auth.profile", Paths: []string{"/auth/profile"}, Methods: []string{http.MethodGet}, Access: Public, Handler: auth.ProfileHandler()},
	}
}
