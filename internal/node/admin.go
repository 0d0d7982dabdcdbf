package node

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/manesajian/superq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// AdminServer exposes a read-only view of a datastore's collections over
// HTTP, for operators and dashboards — never for mutating data.
type AdminServer struct {
	ds     *superq.Datastore
	log    *zap.Logger
	engine *gin.Engine
	srv    *http.Server
}

// NewAdminServer builds the admin HTTP surface for ds, listening at addr
// once Start is called.
func NewAdminServer(ds *superq.Datastore, addr string, sessionKey []byte, log *zap.Logger) *AdminServer {
	log = log.Named("admin")
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapRequestLogger(log))
	r.Use(secure.New(secure.Config{
		SSLRedirect:           false,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'",
	}))
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(sessions.Sessions("superq_admin", cookie.NewStore(sessionKey)))

	a := &AdminServer{ds: ds, log: log, engine: r}

	r.GET("/healthz", a.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/stats", a.handleStats)
	r.GET("/api/collections", a.handleListCollections)
	r.GET("/api/collections/:name", a.handleGetCollection)

	a.srv = &http.Server{Addr: addr, Handler: r}
	return a
}

func zapRequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("admin request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (a *AdminServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *AdminServer) handleStats(c *gin.Context) {
	names := a.ds.Names()
	total := 0
	for _, n := range names {
		if col, err := a.ds.Read(n); err == nil {
			total += col.Len()
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"collections": len(names),
		"elements":    total,
	})
}

func (a *AdminServer) handleListCollections(c *gin.Context) {
	names := a.ds.Names()
	out := make([]gin.H, 0, len(names))
	for _, name := range names {
		col, err := a.ds.Read(name)
		if err != nil {
			continue
		}
		out = append(out, gin.H{"name": name, "len": col.Len()})
	}
	c.JSON(http.StatusOK, out)
}

func (a *AdminServer) handleGetCollection(c *gin.Context) {
	name := c.Param("name")
	col, err := a.ds.Read(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	elems := col.All()
	out := make([]gin.H, 0, len(elems))
	for _, e := range elems {
		row := gin.H{"name": e.Name().Any(), "scalar": e.IsScalar()}
		if e.IsScalar() {
			v, _ := e.ScalarValue()
			row["value"] = v.Any()
		} else {
			atoms := gin.H{}
			for _, a := range e.Atoms() {
				atoms[a.Name] = a.Value.Any()
			}
			row["atoms"] = atoms
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "len": col.Len(), "elements": out})
}

// Start serves the admin HTTP surface until Shutdown is called.
func (a *AdminServer) Start() error {
	a.log.Info("listening", zap.String("addr", a.srv.Addr))
	err := a.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the admin HTTP surface.
func (a *AdminServer) Shutdown() error {
	return a.srv.Close()
}
