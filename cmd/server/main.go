package main // Entry point package

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/config"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/dataset"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/gateway"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/metrics"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/middleware"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/monitor"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/queue"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/router"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/service"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/session"
    "github.com/iliyamo/tobacco-detection-dashboard/internal/view"
)

func main() {
    cfg := config.Load() // Load environment config (and .env when present)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    reg := prometheus.NewRegistry()
    reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    m := metrics.New(reg)

    // Session mirrors go to Redis when it answers, otherwise stay in memory.
    rdb := config.NewRedisClient(cfg.Redis)
    var store session.Store = session.NewMemoryStore()
    if rdb != nil {
        store = session.NewRedisStore(rdb, cfg.Redis.SessionPrefix, cfg.SessionTTL)
        defer func() { _ = rdb.Close() }()
    }
    sessions := session.NewManager(store, cfg.SessionTTL)
    go sessions.Run(ctx, time.Minute)

    api := gateway.New(cfg.APIBaseURL, cfg.RequestTimeout, m)
    if cfg.ProbeURL != "" {
        api.WithProbeURL(cfg.ProbeURL)
    }
    mon := monitor.New(api.Ping, cfg.ProbeInterval, cfg.ProbeTimeout, m)
    mon.Start(ctx)
    defer mon.Stop()

    auditor := service.NewAuditor(cfg.RabbitURL, cfg.AuditEnabled)
    if cfg.AuditConsumerEnabled {
        go func() {
            if err := queue.StartAuditConsumer(ctx, cfg.RabbitURL, cfg.AuditLogPath); err != nil && !errors.Is(err, context.Canceled) {
                log.Printf("audit-consumer: stopped: %v", err)
            }
        }()
    }

    renderer, err := view.NewRenderer()
    if err != nil {
        log.Fatalf("templates: %v", err)
    }

    e := echo.New() // Create Echo instance
    e.HideBanner = true
    e.Renderer = renderer
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(echomw.Secure())

    router.RegisterRoutes(e, reg)
    router.RegisterViews(e, router.Deps{
        API:       api,
        Monitor:   mon,
        Sessions:  sessions,
        Cookies:   middleware.NewCookieStore(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure || cfg.Production()),
        Datasets:  dataset.New(),
        Metrics:   m,
        Redis:     rdb,
        RateLimit: cfg.RateLimit,
        Dataset:   cfg.Dataset,
        Audit:     auditor,
    })

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s, api=%s)", addr, cfg.Env, cfg.APIBaseURL)

    go func() {
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err) // Log and exit if server fails
        }
    }()

    <-ctx.Done()
    log.Printf("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
