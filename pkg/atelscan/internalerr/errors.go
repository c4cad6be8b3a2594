package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected import outcomes
var (
	ErrReportExists   = errors.New("report already exists")
	ErrReportNotFound = errors.New("report not found")
	ErrNetwork        = errors.New("network failure")
	ErrDownloadFail   = errors.New("download failed")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// MissingElementError reports that a structural anchor expected in every
// bulletin page could not be located. It aborts only the one document
// being processed.
type MissingElementError struct {
	Element string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("missing report element: %s", e.Element)
}

// IsMissingElement reports whether err is a MissingElementError.
func IsMissingElement(err error) bool {
	var me *MissingElementError
	return errors.As(err, &me)
}
