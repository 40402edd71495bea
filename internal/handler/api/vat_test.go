package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/vatcheck/internal/vat"
)

func newValidateRequest(country, code string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/vat/validate", nil)
	q := req.URL.Query()
	if country != "" {
		q.Set("country", country)
	}
	if code != "" {
		q.Set("code", code)
	}
	req.URL.RawQuery = q.Encode()
	return req
}

func TestValidateHandler(t *testing.T) {
	h := NewVATHandler(vat.NewDefaultRegistry(), nil, nil)

	tests := []struct {
		name     string
		country  string
		code     string
		expected ValidationResponse
	}{
		{
			name:    "valid number",
			country: "PT",
			code:    "PT 502 011 378",
			expected: ValidationResponse{
				CountryCode:   "PT",
				Code:          "502011378",
				KnownCountry:  true,
				FormatValid:   true,
				ChecksumValid: true,
				Valid:         true,
			},
		},
		{
			name:    "checksum failure",
			country: "PT",
			code:    "502011379",
			expected: ValidationResponse{
				CountryCode:  "PT",
				Code:         "502011379",
				KnownCountry: true,
				FormatValid:  true,
			},
		},
		{
			name:    "unknown country fails closed",
			country: "US",
			code:    "502011378",
			expected: ValidationResponse{
				CountryCode: "US",
				Code:        "502011378",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Validate(rec, newValidateRequest(tt.country, tt.code))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got ValidationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateHandlerMissingParams(t *testing.T) {
	h := NewVATHandler(vat.NewDefaultRegistry(), nil, nil)

	for _, req := range []*http.Request{
		newValidateRequest("", "502011378"),
		newValidateRequest("PT", ""),
	} {
		rec := httptest.NewRecorder()
		h.Validate(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Error)
	}
}

func TestCountriesHandler(t *testing.T) {
	h := NewVATHandler(vat.NewDefaultRegistry(), nil, nil)

	tests := []struct {
		name     string
		code     string
		expected []string
	}{
		{"ambiguous nine digit code", "502011378", []string{"DE", "ES", "GB", "PT"}},
		{"prefixed code matches its own country", "PT 502 011 378", []string{"PT"}},
		{"no matches", "!!", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/vat/countries", nil)
			q := req.URL.Query()
			q.Set("code", tt.code)
			req.URL.RawQuery = q.Encode()

			rec := httptest.NewRecorder()
			h.Countries(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var got CountriesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.expected, got.Countries)
		})
	}
}

func TestCountriesHandlerMissingCode(t *testing.T) {
	h := NewVATHandler(vat.NewDefaultRegistry(), nil, nil)

	rec := httptest.NewRecorder()
	h.Countries(rec, httptest.NewRequest(http.MethodGet, "/api/vat/countries", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
