// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// Schema returns the openapi3.SchemaRef of the serialized [Result].
func Schema() (*openapi3.SchemaRef, error) {
	result, err := openapi3gen.NewSchemaRefForValue(Result{}, openapi3.Schemas{})
	if err != nil {
		return nil, err
	}

	// stats are serialized through their document form
	stats, err := openapi3gen.NewSchemaRefForValue(statsDocument{}, openapi3.Schemas{})
	if err != nil {
		return nil, err
	}
	result.Value.Properties["stats"] = stats
	return result, nil
}
