package backup

import (
	"strings"
	"time"
)

// FormatFilename substitutes the known placeholders in a filename
// template. Unknown {tokens} are left as-is.
//
// Placeholders: {date} 2026-08-25, {time} 14-30-05,
// {datetime} 20260825_143005, {source} connection name.
func FormatFilename(format string, ts time.Time, source string) string {
	r := strings.NewReplacer(
		"{date}", ts.Format("2006-01-02"),
		"{time}", ts.Format("15-04-05"),
		"{datetime}", ts.Format("20060102_150405"),
		"{source}", source,
	)
	return r.Replace(format)
}
