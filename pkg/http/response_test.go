package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h echo.HandlerFunc, target string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/x/:asset", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAppErrorResponseUsesErrorStatus(t *testing.T) {
	rec := serve(func(c echo.Context) error {
		return AppErrorResponse(c, ConflictError("busy"))
	}, "/x/btc")

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_CONFLICT", body.Data[0].Code)
}

func TestAppErrorResponseHidesPlainErrors(t *testing.T) {
	rec := serve(func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("dial tcp: refused"))
	}, "/x/btc")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}

type probe struct {
	Asset string `param:"asset" validate:"required,alphanum"`
	Limit int    `query:"limit" default:"10" validate:"gte=1,lte=50"`
}

func TestReadAndValidateRequest(t *testing.T) {
	var got probe
	h := func(c echo.Context) error {
		got = probe{}
		if verr := ReadAndValidateRequest(c, &got); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return SuccessResponse(c, got)
	}

	rec := serve(h, "/x/btc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, probe{Asset: "btc", Limit: 10}, got)

	rec = serve(h, "/x/btc?limit=99")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Data []ValidationError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_LTE", body.Data[0].Code)
	assert.Equal(t, "limit", body.Data[0].Field)
}
