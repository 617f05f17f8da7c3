// Package fakeapi is an in-memory stand-in for the accounting backend. It
// serves the same routes, envelopes and error shapes under /api/v1 so the
// client, the screens and the CLI can be exercised end to end without a
// real server.
package fakeapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/erp/books/internal/infrastructure/validation"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// APIPrefix is the path every route is mounted under
const APIPrefix = "/api/v1"

// Defaults used when Options leaves a field empty
const (
	DefaultCompanyID = "demo"
	DefaultUsername  = "admin"
	DefaultPassword  = "admin123"
)

// Options configures a Server
type Options struct {
	Companies  []string // Company IDs to seed, DefaultCompanyID when empty
	Seed       uint64   // gofakeit seed, so runs are reproducible
	Vendors    int
	Items      int
	Bills      int
	Orders     int
	Username   string
	Password   string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Logger     *zap.Logger
	Now        func() time.Time

	// TracerProvider and Propagators default to the otel globals
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
}

func (o Options) withDefaults() Options {
	if len(o.Companies) == 0 {
		o.Companies = []string{DefaultCompanyID}
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.Vendors == 0 {
		o.Vendors = 8
	}
	if o.Items == 0 {
		o.Items = 20
	}
	if o.Bills == 0 {
		o.Bills = 15
	}
	if o.Orders == 0 {
		o.Orders = 6
	}
	if o.Username == "" {
		o.Username = DefaultUsername
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	if o.Secret == "" {
		o.Secret = "fakeapi-signing-secret"
	}
	if o.AccessTTL <= 0 {
		o.AccessTTL = 15 * time.Minute
	}
	if o.RefreshTTL <= 0 {
		o.RefreshTTL = 24 * time.Hour
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Server is the fake backend. All state sits behind one mutex; it is a test
// double, not a database.
type Server struct {
	opts      Options
	engine    *gin.Engine
	validator *validation.Validator
	logger    *zap.Logger
	tokens    *tokenIssuer

	mu        sync.Mutex
	companies map[string]*companyData
	faults    map[string]*Fault
	calls     map[string]int
	emails    []SentEmail
	seq       int
}

// New creates a seeded Server
func New(opts Options) *Server {
	opts = opts.withDefaults()
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:      opts,
		engine:    gin.New(),
		validator: validation.New(),
		logger:    opts.Logger.Named("fakeapi"),
		tokens:    newTokenIssuer(opts.Secret, opts.AccessTTL, opts.RefreshTTL, opts.Now),
		companies: make(map[string]*companyData),
		faults:    make(map[string]*Fault),
		calls:     make(map[string]int),
	}
	seed(s, opts)
	s.routes()
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.tracing(), requestID(), spanAttributes(), s.requestLogger(), s.faultInjector())

	v1 := s.engine.Group(APIPrefix)
	v1.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	authGroup := v1.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)

	co := v1.Group("/companies/:company_id", s.requireAuth(), s.loadCompany())

	co.GET("/settings", s.getSettings)
	co.PUT("/settings", s.updateSettings)

	co.GET("/vendors", s.listVendors)
	co.POST("/vendors", s.createVendor)
	co.GET("/vendors/:id", s.getVendor)
	co.PUT("/vendors/:id", s.updateVendor)
	co.DELETE("/vendors/:id", s.deleteVendor)

	co.GET("/bills", s.listBills)
	co.POST("/bills", s.createBill)
	co.GET("/bills/:id", s.getBill)

	for _, g := range []*gin.RouterGroup{co.Group("/items"), co.Group("/inventory/items")} {
		g.GET("", s.listItems)
		g.POST("", s.createItem)
		g.GET("/:id", s.getItem)
		g.PUT("/:id", s.updateItem)
		g.DELETE("/:id", s.deleteItem)
	}

	inv := co.Group("/inventory")
	inv.GET("/adjustments", s.listAdjustments)
	inv.POST("/adjustments", s.adjust)
	inv.GET("/locations", s.listLocations)
	inv.POST("/locations", s.createLocation)
	inv.PUT("/locations/:id", s.updateLocation)
	inv.DELETE("/locations/:id", s.deleteLocation)
	inv.GET("/transactions", s.listTransactions)
	inv.GET("/assemblies", s.listAssemblies)
	inv.POST("/assemblies", s.createAssembly)
	inv.POST("/assemblies/:id/build", s.buildAssembly)
	inv.GET("/reorder", s.reorder)
	inv.GET("/receipts", s.listReceipts)
	inv.POST("/receipts", s.createReceipt)
	inv.GET("/valuation", s.valuation)
	inv.GET("/export", s.exportItems)
	inv.POST("/import", s.importItems)

	po := co.Group("/purchase-orders")
	po.GET("", s.listOrders)
	po.POST("", s.createOrder)
	po.GET("/:id", s.getOrder)
	po.PUT("/:id", s.updateOrder)
	po.DELETE("/:id", s.deleteOrder)
	po.PUT("/:id/status", s.updateOrderStatus)
	po.POST("/:id/email", s.emailOrder)

	tpl := co.Group("/emails/templates")
	tpl.GET("", s.listTemplates)
	tpl.POST("", s.createTemplate)
	tpl.GET("/:id", s.getTemplate)
	tpl.PUT("/:id", s.updateTemplate)
	tpl.DELETE("/:id", s.deleteTemplate)
	tpl.POST("/:id/default", s.setDefaultTemplate)
	tpl.POST("/:id/logo", s.uploadLogo)
}

// nextNumber returns a process-wide sequence number for document numbers
func (s *Server) nextNumber() int {
	s.seq++
	return s.seq
}
