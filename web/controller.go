package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/neonet-app/go-auth"
)

// Routes holds the paths mounted under the prefix
type Routes struct {
	Prefix   string
	Handlers string
	Register string
	Login    string
	Callback string
	Refresh  string
	Logout   string
	Me       string
}

// DefaultRoutes returns the /api/auth layout
func DefaultRoutes() *Routes {
	return &Routes{
		Prefix:   "/api/auth",
		Handlers: "/handlers",
		Register: "/:handler/register",
		Login:    "/:handler/login",
		Callback: "/:handler/callback",
		Refresh:  "/:handler/refresh",
		Logout:   "/:handler/logout",
		Me:       "/:handler/me",
	}
}

// Controller exposes the handler operations over JSON
type Controller struct {
	Debug    bool
	Logger   auth.Logger
	Handlers *auth.Handlers
	Repo     auth.UserRepository
	Routes   *Routes
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(l auth.Logger) Option {
	return func(c *Controller) {
		c.Logger = l
	}
}

// WithDebug dumps responses of successful calls to the logger
func WithDebug(debug bool) Option {
	return func(c *Controller) {
		c.Debug = debug
	}
}

// WithRoutes replaces the route layout
func WithRoutes(r *Routes) Option {
	return func(c *Controller) {
		c.Routes = r
	}
}

// NewController returns a controller for handlers backed by repo
func NewController(handlers *auth.Handlers, repo auth.UserRepository, opts ...Option) *Controller {
	c := &Controller{
		Handlers: handlers,
		Repo:     repo,
		Routes:   DefaultRoutes(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.Logger == nil {
		c.Logger = auth.NewDefaultLogger(nil)
	}
	return c
}

// Mount registers the routes on r
func (a *Controller) Mount(r fiber.Router) {
	g := r.Group(a.Routes.Prefix)

	g.Get(a.Routes.Handlers, a.ListHandlers)
	g.Post(a.Routes.Register, a.Register)
	g.Post(a.Routes.Login, a.Login)
	g.Get(a.Routes.Callback, a.Callback)
	g.Post(a.Routes.Refresh, a.Refresh)
	g.Post(a.Routes.Logout, a.Logout)
	g.Get(a.Routes.Me, RequireAccessToken(a.Handlers, a.Repo), a.Me)
}

// ErrorHandler renders errors as ErrorResponse
func (a *Controller) ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("auth request failed",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	} else {
		a.Logger.Debug("auth request rejected",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	}
	return c.Status(status).JSON(responseFor(err))
}

func (a *Controller) ListHandlers(c *fiber.Ctx) error {
	out := []HandlerInfo{}
	for _, h := range a.Handlers.All() {
		out = append(out, HandlerInfo{
			Name:        h.Name(),
			Version:     h.Version(),
			Description: h.Description(),
			Kind:        string(h.Kind()),
			RequireZKP:  h.RegisterRequireZKP(),
		})
	}
	return c.JSON(out)
}

func (a *Controller) Register(c *fiber.Ctx) error {
	handler, err := resolveHandler(c, a.Handlers)
	if err != nil {
		return err
	}

	payload := new(RegisterPayload)
	if err := c.BodyParser(payload); err != nil {
		return badPayload(err)
	}

	if err := payload.Validate(handler.RegisterRequireZKP()); err != nil {
		return err
	}

	if err := handler.Register(c.UserContext(), a.Repo, payload.CreateUser(), auth.RoleUser); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusCreated)
}

func (a *Controller) Login(c *fiber.Ctx) error {
	handler, err := resolveHandler(c, a.Handlers)
	if err != nil {
		return err
	}

	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		return badPayload(err)
	}

	res, err := handler.Login(c.UserContext(), a.Repo, payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return a.respond(c, fiber.StatusOK, LoginResponse{
		Token:    res.Token,
		Redirect: res.Redirect,
	})
}

func (a *Controller) Callback(c *fiber.Ctx) error {
	handler, err := resolveHandler(c, a.Handlers)
	if err != nil {
		return err
	}

	token, err := handler.Callback(c.UserContext(), a.Repo, c.Query("code"))
	if err != nil {
		return err
	}

	return a.respond(c, fiber.StatusOK, LoginResponse{Token: token})
}

func (a *Controller) Refresh(c *fiber.Ctx) error {
	handler, err := resolveHandler(c, a.Handlers)
	if err != nil {
		return err
	}

	token, err := requestToken(c)
	if err != nil {
		return err
	}

	access, err := handler.Refresh(c.UserContext(), a.Repo, token)
	if err != nil {
		return err
	}

	return a.respond(c, fiber.StatusOK, AccessTokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
	})
}

func (a *Controller) Logout(c *fiber.Ctx) error {
	handler, err := resolveHandler(c, a.Handlers)
	if err != nil {
		return err
	}

	token, err := requestToken(c)
	if err != nil {
		return err
	}

	if err := handler.Logout(c.UserContext(), a.Repo, token); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *Controller) Me(c *fiber.Ctx) error {
	user, ok := UserFromContext(c)
	if !ok {
		return ErrMissingToken.Clone()
	}
	return c.JSON(user)
}

func (a *Controller) respond(c *fiber.Ctx, status int, body any) error {
	if a.Debug {
		a.Logger.Debug("auth response", "path", c.Path(), "body", print.MaybePrettyJSON(redact(body)))
	}
	return c.Status(status).JSON(body)
}

// requestToken reads the bearer header, then the JSON body
func requestToken(c *fiber.Ctx) (string, error) {
	if token, ok := BearerToken(c, "Bearer"); ok {
		return token, nil
	}

	payload := new(TokenPayload)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return "", badPayload(err)
		}
	}

	if payload.Token == "" {
		return "", ErrMissingToken.Clone()
	}
	return payload.Token, nil
}

func badPayload(err error) error {
	clone := ErrBadPayload.Clone()
	clone.Source = err
	return clone
}

func redact(body any) any {
	switch v := body.(type) {
	case LoginResponse:
		if v.Token != "" {
			v.Token = "[redacted]"
		}
		return v
	case AccessTokenResponse:
		v.AccessToken = "[redacted]"
		return v
	default:
		return body
	}
}

// NewApp returns a fiber app with the controller mounted
func NewApp(controller *Controller, cfg ...fiber.Config) *fiber.App {
	config := fiber.Config{}
	if len(cfg) > 0 {
		config = cfg[0]
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = controller.ErrorHandler
	}
	if config.AppName == "" && controller.Handlers != nil {
		config.AppName = controller.Handlers.AppName()
	}

	app := fiber.New(config)
	controller.Mount(app)
	return app
}
