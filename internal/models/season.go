package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SeasonStartYear parses the first year of a "2024-25" style season label
func SeasonStartYear(season string) (int, error) {
	head, _, ok := strings.Cut(season, "-")
	if !ok || len(head) != 4 {
		return 0, fmt.Errorf("invalid season %q, expected YYYY-YY", season)
	}
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("invalid season %q: %w", season, err)
	}
	return year, nil
}

// SeasonLabel formats the season that starts in year
func SeasonLabel(year int) string {
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// SeasonsEndingAt returns the prior seasons oldest first, followed by season itself
func SeasonsEndingAt(season string, prior int) ([]string, error) {
	year, err := SeasonStartYear(season)
	if err != nil {
		return nil, err
	}
	if prior < 0 {
		prior = 0
	}
	out := make([]string, 0, prior+1)
	for y := year - prior; y <= year; y++ {
		out = append(out, SeasonLabel(y))
	}
	return out, nil
}
