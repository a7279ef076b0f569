// Screenscout - Personalized Movie & TV Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/screenscout

package database

import "errors"

// ErrNotFound is returned by single-row lookups when no row matches.
// Callers distinguish "absent" from "failed" with errors.Is.
var ErrNotFound = errors.New("not found")
