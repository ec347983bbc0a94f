// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

// ErrInvalidName is returned when the instance name is not a DNS name
var ErrInvalidName = errors.New("invalid geotrace name")
