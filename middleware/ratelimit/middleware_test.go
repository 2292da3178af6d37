package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(t *testing.T, mw echo.MiddlewareFunc, target string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(target)

	err := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)

	return rec, err
}

func TestMiddleware(t *testing.T) {
	t.Run("answers 429 once the budget is spent", func(t *testing.T) {
		mw := Middleware(&Config{
			Store:  NewMemoryStore(),
			Rate:   2,
			Period: time.Minute,
		})

		for i := 0; i < 2; i++ {
			rec, err := hit(t, mw, "/login")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		_, err := hit(t, mw, "/login")
		require.Error(t, err)

		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusTooManyRequests, httpErr.Code)
	})

	t.Run("exposes the limit headers", func(t *testing.T) {
		mw := Middleware(&Config{
			Store:  NewMemoryStore(),
			Rate:   5,
			Period: time.Minute,
		})

		rec, err := hit(t, mw, "/login")
		require.NoError(t, err)

		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("routes are limited independently", func(t *testing.T) {
		mw := Middleware(&Config{
			Store:  NewMemoryStore(),
			Rate:   1,
			Period: time.Minute,
		})

		rec, err := hit(t, mw, "/login")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		_, err = hit(t, mw, "/login")
		require.Error(t, err)

		rec, err = hit(t, mw, "/password/forgot")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDefaultKeyGenerator(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/login")

	assert.Equal(t, "rate_limit:/login:203.0.113.7", DefaultKeyGenerator(c))

	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ""
	c = e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/login")

	assert.Equal(t, "rate_limit:/login:fallback", DefaultKeyGenerator(c))
}
