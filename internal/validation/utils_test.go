package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/policydesk/internal/errs"
)

type sampleRequest struct {
	ID    int64  `param:"id" validate:"gt=0"`
	Name  string `json:"name" validate:"required,max=5"`
	Start string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *sampleRequest) Validate() error {
	if err := Struct(r); err != nil {
		return err
	}
	if r.Name == "nope" {
		return CustomValidationErrors{{Field: "name", Message: "is reserved"}}
	}
	return nil
}

func bind(t *testing.T, id, body string) (*sampleRequest, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(id)

	payload := &sampleRequest{}
	return payload, BindAndValidate(c, payload)
}

func httpErr(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var he *errs.HTTPError
	require.True(t, errors.As(err, &he), "got %T", err)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	return he
}

func TestBindAndValidateSuccess(t *testing.T) {
	payload, err := bind(t, "7", `{"name":"Acme","start_date":"2024-01-01"}`)
	require.NoError(t, err)
	assert.Equal(t, int64(7), payload.ID)
	assert.Equal(t, "Acme", payload.Name)
}

func TestBindAndValidateFieldErrorsUseJSONNames(t *testing.T) {
	err := func() error { _, err := bind(t, "7", `{"name":"","start_date":"01/02/2024"}`); return err }()
	he := httpErr(t, err)
	assert.Equal(t, "Validation failed", he.Message)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "name", Error: "is required"},
		{Field: "start_date", Error: "must be a date in YYYY-MM-DD format"},
	}, he.Errors)
}

func TestBindAndValidateCustomErrors(t *testing.T) {
	_, err := bind(t, "7", `{"name":"nope"}`)
	he := httpErr(t, err)
	assert.Equal(t, []errs.FieldError{{Field: "name", Error: "is reserved"}}, he.Errors)
}

func TestBindAndValidateMalformedInput(t *testing.T) {
	_, err := bind(t, "7", `{"name":`)
	he := httpErr(t, err)
	assert.Empty(t, he.Errors)

	_, err = bind(t, "abc", `{"name":"Acme"}`)
	he = httpErr(t, err)
	assert.Equal(t, "Invalid path or query parameter", he.Message)

	_, err = bind(t, "0", `{"name":"Acme"}`)
	he = httpErr(t, err)
	assert.Equal(t, []errs.FieldError{{Field: "id", Error: "must be greater than 0"}}, he.Errors)
}

func TestBindAndValidateMaxLength(t *testing.T) {
	_, err := bind(t, "1", `{"name":"Acme Trucking"}`)
	he := httpErr(t, err)
	assert.Equal(t, []errs.FieldError{{Field: "name", Error: "must not exceed 5 characters"}}, he.Errors)
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("3f2504e0-4f89-11d3-9a0c-0305e82c3301"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
}
