package db

import (
	"strings"

	"github.com/persistorai/vitiapi/internal/db/migrations"
)

// SchemaVersion returns the number of embedded SQL migrations. It is reported
// by the readiness endpoint so operators can spot a stale deployment.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			count++
		}
	}

	return count
}
