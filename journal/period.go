package journal

import (
	"fmt"
	"strings"
)

// Period is a relative time window used to filter trades for display.
type Period string

const (
	Period1D  Period = "1D"
	Period1W  Period = "1W"
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	PeriodYTD Period = "YTD"
	PeriodAll Period = "ALL"
)

// Periods lists every period in display order.
var Periods = []Period{Period1D, Period1W, Period1M, Period3M, PeriodYTD, PeriodAll}

// ParsePeriod parses a period code, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// PeriodOrAll parses s and falls back to ALL when s is empty or unknown.
func PeriodOrAll(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		return PeriodAll
	}
	return p
}

// Label is a human readable description of the window.
func (p Period) Label() string {
	switch p {
	case Period1D:
		return "Last day"
	case Period1W:
		return "Last week"
	case Period1M:
		return "Last month"
	case Period3M:
		return "Last 3 months"
	case PeriodYTD:
		return "Year to date"
	case PeriodAll:
		return "All time"
	}
	return ""
}
