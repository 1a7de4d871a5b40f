package server_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"storefront/internal/handler"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/kv"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/view"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type seqID struct{ n int }

func (s *seqID) NewID() string {
	s.n++
	return fmt.Sprintf("order-%d", s.n)
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func newApp(t *testing.T) *echo.Echo {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)
	renderer, err := view.NewRenderer()
	require.NoError(t, err)
	tokens, err := middleware.NewSessionTokens(middleware.SessionConfig{Secret: "server-test"})
	require.NoError(t, err)

	notifier := notify.New(time.Hour)
	t.Cleanup(notifier.Close)

	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	cartUC := usecase.NewCartUsecase(cat, infraRepo.NewCartKVStorage(kv.NewMemoryStore(), log), notifier,
		&seqID{}, wallClock{}, log, usecase.NewMetrics(reg))
	productUC := usecase.NewProductUsecase(cat)

	return server.New(server.Options{
		Renderer: renderer,
		Sessions: tokens,
		Logger:   log,
		Gatherer: reg,
	}, server.Handlers{
		Page:    handler.NewPageHandler(productUC, cartUC, notifier),
		Product: handler.NewProductHandler(productUC),
		Cart:    handler.NewCartHandler(cartUC),
	})
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func TestCSRF_FormPostNeedsToken(t *testing.T) {
	srv := httptest.NewServer(newApp(t))
	defer srv.Close()
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	token, ok := doc.Find(`form[action="/cart/items/101"] input[name="_csrf"]`).Attr("value")
	require.True(t, ok)
	require.NotEmpty(t, token)

	//トークンなし
	resp, err = c.PostForm(srv.URL+"/cart/items/101", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusForbidden}, resp.StatusCode)

	//違うトークン
	resp, err = c.PostForm(srv.URL+"/cart/items/101", url.Values{"_csrf": {"nope"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = c.PostForm(srv.URL+"/cart/items/101", url.Values{"_csrf": {token}})
	require.NoError(t, err)
	doc, err = goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", doc.Find("#cart-count").Text())
}

func TestCSRF_HeaderForJSONClients(t *testing.T) {
	srv := httptest.NewServer(newApp(t))
	defer srv.Close()
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/cart")
	require.NoError(t, err)
	resp.Body.Close()

	u, _ := url.Parse(srv.URL)
	var token string
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == server.CSRFCookieName {
			token = ck.Value
		}
	}
	require.NotEmpty(t, token)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, srv.URL+"/cart/items/101", nil)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXCSRFToken, token)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthzAndMetrics(t *testing.T) {
	srv := httptest.NewServer(newApp(t))
	defer srv.Close()
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(b))

	//カートを1回動かしてからメトリクスを見る
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/cart", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = c.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "storefront_cart_sessions")
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	app := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, addr, app, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
