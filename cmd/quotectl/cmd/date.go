package cmd

import (
	"fmt"
	"time"
)

// parseDate reads YYYY-MM-DD in the location of ref.
func parseDate(raw string, ref time.Time) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, raw, ref.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
	}
	return d, nil
}
