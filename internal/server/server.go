package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const CSRFCookieName = "csrf_token"

type Options struct {
	Renderer     echo.Renderer
	Sessions     *middleware.SessionTokens
	CookieSecure bool
	Logger       *zap.Logger
	Gatherer     prometheus.Gatherer
}

// ミドルウェアとルートを組んだechoを返す
func New(opts Options, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = opts.Renderer

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(middleware.CartSession(opts.Sessions, opts.CookieSecure))

	// double submit（cookie csrf_token とフォーム _csrf / ヘッダ X-CSRF-Token）
	e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        skipCSRF,
		TokenLookup:    "form:_csrf,header:X-CSRF-Token",
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: false,
		CookieSecure:   opts.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))

	RegisterRoutes(e, h, opts.Gatherer)
	return e
}

func skipCSRF(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/healthz" || p == "/metrics"
}

// ctxが終わるまで待ち受けて、終わったらShutdownする
func Start(ctx context.Context, addr string, e *echo.Echo, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
