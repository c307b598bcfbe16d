package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestOKEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := OK(c, http.StatusCreated, map[string]string{"id": "1"}); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.Message != "" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	handler := HTTPErrorHandler(zerolog.Nop(), false)

	run := func(err error) (int, Envelope) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler(err, c)

		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		return rec.Code, env
	}

	t.Run("HTTPError", func(t *testing.T) {
		code, env := run(echo.NewHTTPError(http.StatusNotFound, "user not found"))
		if code != http.StatusNotFound || env.Success || env.Message != "user not found" {
			t.Errorf("got %d %+v", code, env)
		}
	})

	t.Run("OpaqueErrorHidesDetail", func(t *testing.T) {
		code, env := run(errors.New("pq: connection refused"))
		if code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", code)
		}
		if env.Message != "server error" {
			t.Errorf("internal detail leaked: %q", env.Message)
		}
	})

	t.Run("DevModeExposesDetail", func(t *testing.T) {
		devHandler := HTTPErrorHandler(zerolog.Nop(), true)
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		devHandler(errors.New("boom"), c)

		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatal(err)
		}
		if env.Message != "boom" {
			t.Errorf("expected detail in dev mode, got %q", env.Message)
		}
	})
}
