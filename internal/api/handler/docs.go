package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// APIDocs serves the registered OpenAPI document as JSON.
func APIDocs(c echo.Context) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(doc))
}
