package openapi

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/pomclinic/intake/config"
	"github.com/pomclinic/intake/server"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

// RegisterRoutes serves the API description as JSON and YAML.
func RegisterRoutes(srv *server.Server, doc *openapi3.T) {
	e := srv.Echo()

	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, doc)
	})

	e.GET("/openapi.yaml", func(c echo.Context) error {
		data, err := doc.MarshalJSON()
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}

		var intermediate any
		if err := yaml.Unmarshal(data, &intermediate); err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}
		out, err := yaml.Marshal(intermediate)
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}

		return c.Blob(http.StatusOK, "application/yaml", out)
	})
}

func ProvideDocument(cfg *config.Config) *openapi3.T {
	return Document(cfg)
}

var Module = fx.Module("openapi",
	fx.Provide(ProvideDocument),
	fx.Invoke(RegisterRoutes),
)
