package capture

import (
	"strings"
	"time"

	"github.com/ravensys/netcollect/pkg/domain"
)

// timestampLayout is the {timestamp} expansion format: sortable and safe in
// a filename on every target platform (no colons).
const timestampLayout = "20060102T150405Z"

// ExpandFilename fills a job's filename template with device_name,
// device_id, and timestamp. Unknown {variables} fall through literally,
// since a typo in a job's template should be visible in the resulting
// filename rather than silently swallowed.
func ExpandFilename(template string, device *domain.Device, at time.Time) string {
	replacer := strings.NewReplacer(
		"{device_name}", device.Name,
		"{device_id}", device.ID,
		"{timestamp}", at.UTC().Format(timestampLayout),
	)
	return replacer.Replace(template)
}
