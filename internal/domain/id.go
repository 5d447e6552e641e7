package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID builds a prefixed identifier: <prefix>_<epoch-ms>_<random>.
// Identifiers are generated once at creation time and never reused.
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

// NowISO returns the current UTC time as an ISO-8601 string, the timestamp
// format every stored record carries.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
