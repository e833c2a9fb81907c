package web

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cmdfetch "ptf-calc/command/fetch"
	cmdreconcile "ptf-calc/command/reconcile"
	cmdsplit "ptf-calc/command/split"
	"ptf-calc/connectors/config"
	ccsv "ptf-calc/connectors/csv"
	"ptf-calc/connectors/epias"
	"ptf-calc/connectors/library"
	"ptf-calc/connectors/metrics"
	"ptf-calc/connectors/sheet"
	"ptf-calc/domain/batch"
	dconfig "ptf-calc/domain/config"
)

// Run starts a small Echo web server exposing the settings, the PTF library and the batch
// pipeline as JSON APIs, plus an optional SPA dashboard.
//
// Usage:
//
//	ptf-calc web [-addr :8080] [-data ./PtfHesaplama] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET  /api/settings              -> rates and params
//	PUT  /api/settings/rates        -> {"day":..,"peak":..,"night":..} (any subset)
//	PUT  /api/settings/params       -> {"kdv":0.2,...}
//	GET  /api/ptf                   -> library file names
//	POST /api/ptf/import            -> {"path":"..."}
//	GET  /api/outputs               -> spreadsheets in <data>
//	GET  /api/outputs/:name         -> rows of <data>/<name> (404 if missing)
//	POST /api/reconcile             -> {"folder":"...","ptf":"..."}
//	POST /api/split                 -> {"file":"...","out":"..."}
//	POST /api/fetch                 -> {"date":"2024-01-31","save":true}
//	GET  /metrics                   -> Prometheus exposition
//
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address (host:port)")
	dataDir := fs.String("data", "./"+batch.OutputDirName, "directory containing output spreadsheets")
	uiDir := fs.String("ui", "./ui/dist", "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s := &Server{
		DataDir:        *dataDir,
		UIDir:          *uiDir,
		LoadEnv:        config.LoadEnv,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		NewPriceSource: newEPIASSource,
	}
	return s.Echo().Start(*addr)
}

// newEPIASSource builds the EPİAŞ client from the configuration and the EPIAS_USERNAME and
// EPIAS_PASSWORD environment variables.
func newEPIASSource(env *config.Env) (cmdfetch.PriceSource, error) {
	loc, err := time.LoadLocation(env.Config.EPIAS.Timezone)
	if err != nil {
		return nil, fmt.Errorf("epias.timezone: %w", err)
	}
	c, err := epias.New(os.Getenv("EPIAS_USERNAME"), os.Getenv("EPIAS_PASSWORD"), epias.Options{
		AuthURL:    env.Config.EPIAS.AuthURL,
		ServiceURL: env.Config.EPIAS.ServiceURL,
		Location:   loc,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	DataDir        string
	UIDir          string
	LoadEnv        func() (*config.Env, error)
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	NewPriceSource func(env *config.Env) (cmdfetch.PriceSource, error)
}

func errorJSON(c echo.Context, code int, err error, message string) error {
	return c.JSON(code, map[string]any{
		"error":   err.Error(),
		"message": message,
	})
}

// Echo builds the router.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Helper to run a handler with a freshly loaded config/settings pair
	withEnv := func(h func(c echo.Context, env *config.Env) error) echo.HandlerFunc {
		return func(c echo.Context) error {
			env, err := s.LoadEnv()
			if err != nil {
				return errorJSON(c, http.StatusInternalServerError, err, "failed to load configuration")
			}
			return h(c, env)
		}
	}

	e.GET("/api/settings", withEnv(func(c echo.Context, env *config.Env) error {
		return c.JSON(http.StatusOK, env.Settings)
	}))
	e.PUT("/api/settings/rates", withEnv(func(c echo.Context, env *config.Env) error {
		var u dconfig.RateUpdate
		if err := c.Bind(&u); err != nil {
			return errorJSON(c, http.StatusBadRequest, err, "invalid rates")
		}
		st, err := config.UpdateRates(env.SettingsPath, u)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "failed to save settings")
		}
		return c.JSON(http.StatusOK, st)
	}))
	e.PUT("/api/settings/params", withEnv(func(c echo.Context, env *config.Env) error {
		values := map[string]float64{}
		if err := c.Bind(&values); err != nil {
			return errorJSON(c, http.StatusBadRequest, err, "invalid params")
		}
		st, unknown, err := config.UpdateParams(env.SettingsPath, values)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "failed to save settings")
		}
		return c.JSON(http.StatusOK, map[string]any{"settings": st, "ignored": unknown})
	}))

	e.GET("/api/ptf", withEnv(func(c echo.Context, env *config.Env) error {
		names, err := (&library.Library{Dir: env.Config.Paths.Library}).List()
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "failed to list library")
		}
		return c.JSON(http.StatusOK, names)
	}))
	e.POST("/api/ptf/import", withEnv(func(c echo.Context, env *config.Env) error {
		var req struct {
			Path string `json:"path"`
		}
		if err := c.Bind(&req); err != nil || req.Path == "" {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "path is required"})
		}
		lib, err := library.New(env.Config.Paths.Library)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "library unavailable")
		}
		name, err := lib.Import(req.Path)
		if errors.Is(err, library.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err, "source file is missing")
		}
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "import failed")
		}
		return c.JSON(http.StatusCreated, map[string]any{"name": name})
	}))

	e.GET("/api/outputs", func(c echo.Context) error {
		files, err := batch.ListInputs(s.DataDir)
		if errors.Is(err, os.ErrNotExist) {
			return c.JSON(http.StatusOK, []string{})
		}
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "failed to list outputs")
		}
		if files == nil {
			files = []string{}
		}
		return c.JSON(http.StatusOK, files)
	})
	e.GET("/api/outputs/:name", func(c echo.Context) error {
		name := c.Param("name")
		if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid name"})
		}
		path := filepath.Join(s.DataDir, name)
		t, err := sheet.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.JSON(http.StatusNotFound, map[string]any{
					"error":   "file not found",
					"path":    path,
					"message": "output file is missing",
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   err.Error(),
				"path":    path,
				"message": "failed to read output",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{"columns": t.Columns, "rows": ccsv.Records(t)})
	})

	e.POST("/api/reconcile", withEnv(func(c echo.Context, env *config.Env) error {
		var req struct {
			Folder string `json:"folder"`
			PTF    string `json:"ptf"`
		}
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, err, "invalid request")
		}
		start := time.Now()
		var obs batch.Observer
		if s.Metrics != nil {
			obs = s.Metrics
		}
		out, err := cmdreconcile.Execute(env, req.Folder, req.PTF, obs)
		if err != nil {
			return errorJSON(c, http.StatusInternalServerError, err, "reconcile failed")
		}
		if s.Metrics != nil {
			s.Metrics.ObserveBatch(out.OK, time.Since(start))
		}
		code := http.StatusOK
		if !out.OK {
			code = http.StatusUnprocessableEntity
		}
		return c.JSON(code, out)
	}))
	e.POST("/api/split", withEnv(func(c echo.Context, env *config.Env) error {
		var req struct {
			File string `json:"file"`
			Out  string `json:"out"`
		}
		if err := c.Bind(&req); err != nil || req.File == "" {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "file is required"})
		}
		if req.Out == "" {
			req.Out = env.Config.Paths.Output
		}
		res, err := cmdsplit.Export(env, req.File, req.Out)
		if err != nil {
			return errorJSON(c, http.StatusUnprocessableEntity, err, "split failed")
		}
		if s.Metrics != nil {
			s.Metrics.SplitFilesTotal.Add(float64(res.Files))
		}
		return c.JSON(http.StatusOK, res)
	}))
	e.POST("/api/fetch", withEnv(func(c echo.Context, env *config.Env) error {
		var req struct {
			Date   string `json:"date"`
			Save   bool   `json:"save"`
			PerKWh bool   `json:"kwh"`
		}
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, err, "invalid request")
		}
		day := time.Now()
		if req.Date != "" {
			d, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				return errorJSON(c, http.StatusBadRequest, err, "invalid date")
			}
			day = d
		}
		src, err := s.NewPriceSource(env)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, err, "price source unavailable")
		}
		res, err := cmdfetch.Fetch(c.Request().Context(), src, env, day, cmdfetch.Options{Save: req.Save, PerKWh: req.PerKWh})
		if s.Metrics != nil {
			s.Metrics.ObserveFetch(err)
		}
		if err != nil {
			return errorJSON(c, http.StatusBadGateway, err, "fetch failed")
		}
		return c.JSON(http.StatusOK, res)
	}))

	if s.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	// Static UI (optional)
	indexPath := filepath.Join(s.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		// Serve built assets under /
		e.Static("/", s.UIDir)
		// Root path -> index.html
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") && p != "/metrics" {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}
