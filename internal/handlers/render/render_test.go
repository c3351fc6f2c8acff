package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	t.Run("ok data", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"key": "value"}

		JSON(w, data)

		require.Equal(t, http.StatusOK, w.Code, "should return status OK")
		require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{"key":"value"}`, w.Body.String())
	})

	t.Run("encode error", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]any{"bad": make(chan int)}

		JSON(w, data)

		require.Equal(t, http.StatusInternalServerError, w.Code, "unencodable data should fail before headers are sent")
	})
}

func TestRender_JSONWithStatus(t *testing.T) {
	w := httptest.NewRecorder()

	JSONWithStatus(w, map[string]int{"answer": 42}, http.StatusCreated)

	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"answer":42}`, w.Body.String())
}

func TestRender_ServiceError(t *testing.T) {
	w := httptest.NewRecorder()

	ServiceError(w, "Something went wrong", http.StatusConflict)

	require.Equal(t, http.StatusConflict, w.Code)
	require.JSONEq(t, `{"error":"service_error","message":"Something went wrong"}`, w.Body.String())
}

func TestRender_BindAndValidate(t *testing.T) {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"maria","password":"longenough"}`))

		got, err := BindAndValidate[request](w, r)

		require.NoError(t, err)
		require.Equal(t, "maria", got.Login)
		require.Equal(t, "longenough", got.Password)
	})

	t.Run("broken json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login": `))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), DecodingErrorType)
	})

	t.Run("wrong field type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login": 42}`))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "Invalid data type for field 'login'", "decode error should name the offending field")
	})

	t.Run("validation failed", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"short"}`))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{
			"error": "validation_failed",
			"message": "Request validation failed",
			"fields": {
				"login": "This field is required",
				"password": "Value is too short (minimum 8)"
			}
		}`, w.Body.String(), "field errors should be keyed by json tag name")
	})
}
