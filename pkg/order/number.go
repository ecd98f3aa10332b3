package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderNumber is a UTC timestamp followed by twelve characters of a
// random UUID, e.g. 20260102150405-9F1C2A7B44DE.
func newOrderNumber(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return now.UTC().Format("20060102150405") + "-" + id[:12]
}
