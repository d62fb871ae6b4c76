package tui

import "errors"

// ErrMissingFetchService is returned when the fetch service is not provided.
var ErrMissingFetchService = errors.New("tui: fetch service is required")

// ErrMissingSiteService is returned when the site service is not provided.
var ErrMissingSiteService = errors.New("tui: site service is required")
