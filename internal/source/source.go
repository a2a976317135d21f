// Package source adapts remote and local catalogs to the page and scope fetchers used by core.
package source

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oedokumaci/catalogsync/internal/contract"
)

// ErrUnexpectedShape reports a response that matches neither the data nor the error shape.
var ErrUnexpectedShape = errors.New("unexpected catalog response shape")

// New returns the catalog source for location: an http(s) endpoint or a catalog file path.
func New(location string, limit int, timeout time.Duration, logger *slog.Logger) (contract.CatalogSource, error) {
	if err := contract.ValidateSource(location); err != nil {
		return nil, err
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, limit, WithTimeout(timeout), WithLogger(logger))
	}
	return NewFileSource(location, limit), nil
}
