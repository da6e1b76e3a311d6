// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/easysplit/backend/src/models"
)

// Parser reads an uploaded trip file and extracts its expense entries.
// Implementations skip rows they cannot make sense of rather than failing
// the whole file, and report how many were dropped.
type Parser interface {
	Parse(file io.Reader) (*models.TripLog, error)
}
