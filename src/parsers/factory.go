// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/easysplit/backend/src/parsers/easysplit"
)

// GetParser returns the parser registered for the given file source.
func GetParser(source string) (Parser, error) {
	switch source {
	case "easysplit":
		return easysplit.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
