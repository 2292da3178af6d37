package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/session"
	"github.com/pomclinic/intake/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authHarness struct {
	echo    *echo.Echo
	service session.SessionService
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &session.Session{})

	manager, err := session.ProvideSessionManager(cfg, db)
	require.NoError(t, err)
	service := session.NewSessionService(db, cfg.Session, nil)

	e := echo.New()
	e.Use(session.Middleware(manager))
	e.Use(session.ServiceMiddleware(service))

	return &authHarness{echo: e, service: service}
}

func (h *authHarness) do(t *testing.T, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}

func TestCookieSessionRoundTrip(t *testing.T) {
	h := newAuthHarness(t)

	record, err := h.service.Create(7, "203.0.113.7", chromeUA)
	require.NoError(t, err)

	h.echo.POST("/login", func(c echo.Context) error {
		session.Login(c, 7, "a@example.com", record.ID)
		return c.NoContent(http.StatusCreated)
	})
	h.echo.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"user_id": session.GetUserID(c),
			"email":   session.GetEmail(c),
		})
	}, session.RequireAuth())
	h.echo.POST("/logout", func(c echo.Context) error {
		session.Logout(c)
		return c.NoContent(http.StatusNoContent)
	})

	loginRec := h.do(t, http.MethodPost, "/login")
	require.Equal(t, http.StatusCreated, loginRec.Code)

	cookies := loginRec.Result().Cookies()
	require.NotEmpty(t, cookies)

	t.Run("stamped session passes the guard", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/whoami", cookies...)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user_id":7`)
		assert.Contains(t, rec.Body.String(), "a@example.com")
	})

	t.Run("no cookie fails the guard", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/whoami")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Unauthorized: Invalid Session")
	})

	t.Run("logout destroys the durable record and the cookie session", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/logout", cookies...)
		require.Equal(t, http.StatusNoContent, rec.Code)

		_, err := h.service.ReadBySessionID(record.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		rec = h.do(t, http.MethodGet, "/whoami", cookies...)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
