// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

var _ Provider = (*IPAPICo)(nil)

// DefaultIPAPICoURL is the endpoint of the ipapi.co service.
const DefaultIPAPICoURL = "https://ipapi.co"

// IPAPICo queries the ipapi.co service.
type IPAPICo struct {
	client  *http.Client
	baseURL string
}

// NewIPAPICo creates an ipapi.co provider. An empty baseURL selects [DefaultIPAPICoURL].
func NewIPAPICo(client *http.Client, baseURL string) *IPAPICo {
	if baseURL == "" {
		baseURL = DefaultIPAPICoURL
	}
	return &IPAPICo{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (p *IPAPICo) Name() string {
	return string(KindIPAPICo)
}

// Lookup queries ipapi.co. The service flags failures with "error" and
// a "reason", and marks addresses of reserved ranges with "reserved".
func (p *IPAPICo) Lookup(ctx context.Context, addr string) (Answer, error) {
	doc, err := getJSON(ctx, p.client, p.Name(), p.baseURL+"/"+url.PathEscape(addr)+"/json/")
	if err != nil {
		return Answer{}, err
	}

	if doc.Get("error").Bool() {
		return Decline("error: %s", doc.Get("reason").String()), nil
	}
	if doc.Get("reserved").Bool() {
		return Decline("reserved address"), nil
	}

	lat, lon, err := coordinates(doc, "latitude", "longitude")
	if err != nil {
		return Decline("%v", err), nil
	}

	return Accept(&Record{
		Latitude:    lat,
		Longitude:   lon,
		City:        doc.Get("city").String(),
		Region:      doc.Get("region").String(),
		Country:     doc.Get("country_name").String(),
		CountryCode: doc.Get("country_code").String(),
	}), nil
}
