package csvimport

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var filenameDate = regexp.MustCompile(`(\d{4}[-.]\d{2}[-.]\d{2})|(\d{1,2}[-.]\d{1,2}[-.]\d{2,4})`)

// Month-first layouts, the order vendors in this market export.
var rowDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
	"2006.01.02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"1/2/06",
	"1-2-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
}

// ParseDate resolves a row-level date cell. Numbers and blanks are not dates.
func ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case string:
		value := strings.TrimSpace(d)
		if value == "" {
			return time.Time{}, false
		}
		for _, layout := range rowDateLayouts {
			if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// DateFromFilename extracts the first YYYY-MM-DD / YYYY.MM.DD or
// M-D-YY(YY) date in a file name. The match must be a real calendar date.
func DateFromFilename(name string) (time.Time, bool) {
	match := filenameDate.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, false
	}

	parts := strings.FieldsFunc(match[0], func(r rune) bool { return r == '-' || r == '.' })
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	if match[1] != "" {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		month, day, year = nums[0], nums[1], nums[2]
		switch len(parts[2]) {
		case 2:
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
		case 3:
			return time.Time{}, false
		}
	}
	return calendarDate(year, month, day)
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if year <= 0 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
