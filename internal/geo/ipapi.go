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

var _ Provider = (*IPAPI)(nil)

const (
	// DefaultIPAPIURL is the endpoint of the free ip-api.com tier.
	DefaultIPAPIURL = "http://ip-api.com"
	ipapiFields     = "status,message,lat,lon,city,regionName,country,countryCode"
)

// IPAPI queries the ip-api.com service.
type IPAPI struct {
	client  *http.Client
	baseURL string
}

// NewIPAPI creates an ip-api.com provider. An empty baseURL selects [DefaultIPAPIURL].
func NewIPAPI(client *http.Client, baseURL string) *IPAPI {
	if baseURL == "" {
		baseURL = DefaultIPAPIURL
	}
	return &IPAPI{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (p *IPAPI) Name() string {
	return string(KindIPAPI)
}

// Lookup queries ip-api.com. The service signals failures with a status
// other than "success" and an explanatory message.
func (p *IPAPI) Lookup(ctx context.Context, addr string) (Answer, error) {
	doc, err := getJSON(ctx, p.client, p.Name(), p.baseURL+"/json/"+url.PathEscape(addr)+"?fields="+ipapiFields)
	if err != nil {
		return Answer{}, err
	}

	if status := doc.Get("status").String(); status != "success" {
		return Decline("status %q: %s", status, doc.Get("message").String()), nil
	}

	lat, lon, err := coordinates(doc, "lat", "lon")
	if err != nil {
		return Decline("%v", err), nil
	}

	return Accept(&Record{
		Latitude:    lat,
		Longitude:   lon,
		City:        doc.Get("city").String(),
		Region:      doc.Get("regionName").String(),
		Country:     doc.Get("country").String(),
		CountryCode: doc.Get("countryCode").String(),
	}), nil
}
