package dataprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var quarterPattern = regexp.MustCompile(`^\d{4}Q[1-4]$`)

// IsQuarterLabel reports whether label is exactly YYYYQ1..YYYYQ4
func IsQuarterLabel(label string) bool {
	return quarterPattern.MatchString(label)
}

// ParseQuarter returns the first day of the labelled quarter in UTC.
// Invalid labels return false.
func ParseQuarter(label string) (time.Time, bool) {
	if !IsQuarterLabel(label) {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(label[:4])
	if err != nil {
		return time.Time{}, false
	}
	quarter := int(label[5] - '0')

	return time.Date(year, time.Month(3*(quarter-1)+1), 1, 0, 0, 0, 0, time.UTC), true
}

// QuarterLabel formats t as the YYYYQ# label of the quarter containing it
func QuarterLabel(t time.Time) string {
	return fmt.Sprintf("%04dQ%d", t.Year(), (int(t.Month())-1)/3+1)
}
