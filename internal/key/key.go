// Package key provides the stable-identifier utilities shared across the
// core: canonical "TYPE_<id>" keys, table pluralization, clock access, UUIDs
// and shuffling.
package key

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// keyPattern matches canonical keys of the form TYPE_<id>, e.g. FLASHCARD_12.
var keyPattern = regexp.MustCompile(`^([A-Z_]+)_(\d+)$`)

// irregularPlurals carries the irregular forms the source's inventory uses.
// Anything not listed here pluralizes by appending "s".
var irregularPlurals = map[string]string{
	"difficulty":         "difficulties",
	"priority":           "priorities",
	"rehearsal_run_item": "rehearsal_run_items",
}

// Parse splits a canonical key into its tag and numeric id. It reports
// ok=false for malformed keys instead of failing — callers log and skip
// per the source's soft-reference policy.
func Parse(s string) (tag string, id int, ok bool) {
	m := keyPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// Make builds a canonical key from an upper-case tag and a table-local id.
func Make(tag string, id int) string {
	return fmt.Sprintf("%s_%d", strings.ToUpper(tag), id)
}

// Pluralize maps a singular entity tag (lower-case) to its table name,
// honoring the irregular forms the source carries.
func Pluralize(tag string) string {
	tag = strings.ToLower(tag)
	if p, ok := irregularPlurals[tag]; ok {
		return p
	}
	return tag + "s"
}

// Now returns the current instant, seconds resolution, matching the
// ISO-8601 granularity metadata requires.
func Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// Today returns the current calendar date (midnight, local).
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// ISO renders an instant as ISO-8601 with seconds resolution.
func ISO(t time.Time) string {
	return t.Truncate(time.Second).Format(time.RFC3339)
}

// UUID4 returns a fresh UUID v4 string.
func UUID4() string {
	return uuid.New().String()
}

// Shuffle permutes seq in place using a fresh, time-seeded source — order
// randomization is cosmetic here, not cryptographic.
func Shuffle[T any](seq []T) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})
}
