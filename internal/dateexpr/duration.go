package dateexpr

import (
	"strconv"
	"strings"
	"time"
)

const (
	dayLength   = 24 * time.Hour
	monthLength = 30 * dayLength
	yearLength  = 365 * dayLength
)

// FormatDuration renders a tracked duration as "1y-2m-3d_4h5m" (editor form,
// no spaces so it fits inside a {duration:...} tag) or "1y 2m 3d 4h5m".
// Zero parts are omitted. A duration with no visible part renders as "0s"
// when seconds are included and "<1m" otherwise.
func FormatDuration(d time.Duration, forEditor, includeSeconds bool) string {
	if d < 0 {
		d = -d
	}
	years := d / yearLength
	d -= years * yearLength
	months := d / monthLength
	d -= months * monthLength
	days := d / dayLength
	d -= days * dayLength
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	var dateParts []string
	for _, p := range []struct {
		n      time.Duration
		suffix string
	}{{years, "y"}, {months, "m"}, {days, "d"}} {
		if p.n != 0 {
			dateParts = append(dateParts, strconv.FormatInt(int64(p.n), 10)+p.suffix)
		}
	}

	var timePart strings.Builder
	if hours != 0 {
		timePart.WriteString(strconv.FormatInt(int64(hours), 10) + "h")
	}
	if minutes != 0 {
		timePart.WriteString(strconv.FormatInt(int64(minutes), 10) + "m")
	}
	if includeSeconds && seconds != 0 {
		timePart.WriteString(strconv.FormatInt(int64(seconds), 10) + "s")
	}

	dateDelim, timeDelim := " ", " "
	if forEditor {
		dateDelim, timeDelim = "-", "_"
	}

	out := strings.Join(dateParts, dateDelim)
	if timePart.Len() > 0 {
		if out != "" {
			out += timeDelim
		}
		out += timePart.String()
	}
	if out == "" {
		if includeSeconds {
			return "0s"
		}
		return "<1m"
	}
	return out
}
