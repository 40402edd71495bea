package vies

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successBody = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>PT</countryCode>
      <vatNumber>502011378</vatNumber>
      <requestDate>2021-01-11+01:00</requestDate>
      <valid>true</valid>
      <name>UNIVERSIDADE DO MINHO</name>
      <address>LG DO PACO BRAGA</address>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const invalidNumberBody = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>PT</countryCode>
      <vatNumber>999999999</vatNumber>
      <requestDate>2021-01-11+01:00</requestDate>
      <valid>false</valid>
      <name>---</name>
      <address>---</address>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const faultBody = `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>MS_MAX_CONCURRENT_REQ</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

// fixtureServer answers every POST with a canned body and records what the
// client sent.
func fixtureServer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestCheckSuccess(t *testing.T) {
	srv, captured := fixtureServer(t, http.StatusOK, successBody)
	c := New(Config{Endpoint: srv.URL})

	result, err := c.Check(context.Background(), "pt", "PT 502 011 378")
	require.NoError(t, err)

	assert.Equal(t, "PT", result.CountryCode)
	assert.Equal(t, "502011378", result.VATNumber)
	assert.True(t, result.Valid)
	assert.Equal(t, "UNIVERSIDADE DO MINHO", result.Name)
	assert.Equal(t, "LG DO PACO BRAGA", result.Address)

	expectedDate := time.Date(2021, 1, 11, 0, 0, 0, 0, time.FixedZone("", 3600))
	assert.True(t, result.RequestDate.Equal(expectedDate), "request date should carry the service's offset")

	// The wire request must carry the sanitized number, not the raw input.
	sent := string(*captured)
	assert.Contains(t, sent, "<urn:countryCode>PT</urn:countryCode>")
	assert.Contains(t, sent, "<urn:vatNumber>502011378</urn:vatNumber>")
	assert.NotContains(t, sent, "502 011")
}

func TestCheckInvalidNumberIsNotAnError(t *testing.T) {
	srv, _ := fixtureServer(t, http.StatusOK, invalidNumberBody)
	c := New(Config{Endpoint: srv.URL})

	result, err := c.Check(context.Background(), "PT", "999999999")
	require.NoError(t, err, "an unregistered number is a definitive answer")

	assert.False(t, result.Valid)
	assert.Empty(t, result.Name, "placeholder name should be dropped")
	assert.Empty(t, result.Address, "placeholder address should be dropped")
}

func TestCheckFault(t *testing.T) {
	// VIES delivers faults with a 500 status.
	srv, _ := fixtureServer(t, http.StatusInternalServerError, faultBody)
	c := New(Config{Endpoint: srv.URL})

	result, err := c.Check(context.Background(), "PT", "502011378")
	require.Error(t, err)
	assert.Nil(t, result)

	fault, ok := IsFault(err)
	require.True(t, ok, "error should be a protocol fault")
	assert.Equal(t, "soap:Server", fault.Code, "fault code is carried verbatim")
	assert.Equal(t, "MS_MAX_CONCURRENT_REQ", fault.Message, "fault string is carried verbatim")
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

func TestCheckMalformedResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not xml", http.StatusOK, "gateway maintenance page"},
		{"empty envelope", http.StatusOK, `<Envelope><Body></Body></Envelope>`},
		{"bad request date", http.StatusOK, `<Envelope><Body><checkVatResponse><countryCode>PT</countryCode><vatNumber>502011378</vatNumber><requestDate>today</requestDate><valid>true</valid></checkVatResponse></Body></Envelope>`},
		{"html error page with 502", http.StatusBadGateway, "<html><body>bad gateway</body></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fixtureServer(t, tt.status, tt.body)
			c := New(Config{Endpoint: srv.URL})

			result, err := c.Check(context.Background(), "PT", "502011378")
			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			_, ok := IsFault(err)
			assert.False(t, ok)
		})
	}
}

func TestCheckUnknownCountry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()
	c := New(Config{Endpoint: srv.URL})

	result, err := c.Check(context.Background(), "XX", "502011378")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnknownCountry)
	assert.Zero(t, requests, "no exchange should happen for an ineligible country")
}

func TestCheckTransportError(t *testing.T) {
	srv, _ := fixtureServer(t, http.StatusOK, successBody)
	srv.Close()
	c := New(Config{Endpoint: srv.URL})

	result, err := c.Check(context.Background(), "PT", "502011378")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse, "transport failures are not malformed responses")
	_, ok := IsFault(err)
	assert.False(t, ok)
}

func TestCheckContextCanceled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)
	c := New(Config{Endpoint: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result, err := c.Check(ctx, "PT", "502011378")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}
