package vies

import (
	"encoding/xml"
	"fmt"
	"time"
)

const (
	soapNamespace  = "http://schemas.xmlsoap.org/soap/envelope/"
	typesNamespace = "urn:ec.europa.eu:taxud:vies:services:checkVat:types"
)

// The service stamps requestDate as a calendar date with a zone offset,
// e.g. 2021-01-11+01:00. Some fixtures omit the offset, so a date-only
// layout is accepted as a fallback.
const (
	requestDateLayout     = "2006-01-02-07:00"
	requestDateBareLayout = "2006-01-02"
)

type requestEnvelope struct {
	XMLName  xml.Name    `xml:"soapenv:Envelope"`
	NSEnv    string      `xml:"xmlns:soapenv,attr"`
	NSTypes  string      `xml:"xmlns:urn,attr"`
	CheckVat checkVatReq `xml:"soapenv:Body>urn:checkVat"`
}

type checkVatReq struct {
	CountryCode string `xml:"urn:countryCode"`
	VATNumber   string `xml:"urn:vatNumber"`
}

func encodeRequest(countryCode, vatNumber string) ([]byte, error) {
	env := requestEnvelope{
		NSEnv:   soapNamespace,
		NSTypes: typesNamespace,
		CheckVat: checkVatReq{
			CountryCode: countryCode,
			VATNumber:   vatNumber,
		},
	}
	body, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode checkVat request: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Response elements are matched by local name only, so prefix choices made
// by the server do not matter.
type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault    *soapFault    `xml:"Fault"`
		Response *checkVatResp `xml:"checkVatResponse"`
	} `xml:"Body"`
}

type soapFault struct {
	Code    string `xml:"faultcode"`
	Message string `xml:"faultstring"`
}

type checkVatResp struct {
	CountryCode string `xml:"countryCode"`
	VATNumber   string `xml:"vatNumber"`
	RequestDate string `xml:"requestDate"`
	Valid       bool   `xml:"valid"`
	Name        string `xml:"name"`
	Address     string `xml:"address"`
}

// decodeResponse maps the three wire outcomes to Go values: a CheckResult,
// a *Fault, or ErrMalformedResponse when the body fits neither shape.
func decodeResponse(body []byte) (*CheckResult, error) {
	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if env.Body.Fault != nil {
		return nil, &Fault{
			Code:    env.Body.Fault.Code,
			Message: env.Body.Fault.Message,
		}
	}

	resp := env.Body.Response
	if resp == nil {
		return nil, fmt.Errorf("%w: no checkVatResponse or Fault element", ErrMalformedResponse)
	}

	date, err := parseRequestDate(resp.RequestDate)
	if err != nil {
		return nil, err
	}

	return &CheckResult{
		CountryCode: resp.CountryCode,
		VATNumber:   resp.VATNumber,
		RequestDate: date,
		Valid:       resp.Valid,
		Name:        placeholderToEmpty(resp.Name),
		Address:     placeholderToEmpty(resp.Address),
	}, nil
}

func parseRequestDate(s string) (time.Time, error) {
	if t, err := time.Parse(requestDateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(requestDateBareLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: bad requestDate %q", ErrMalformedResponse, s)
}

// The service sends "---" for name and address when the member state
// withholds them.
func placeholderToEmpty(s string) string {
	if s == "---" {
		return ""
	}
	return s
}
