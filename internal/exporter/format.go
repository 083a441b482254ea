package exporter

import (
	"strconv"

	"taxipulse/internal/config"
	"taxipulse/pkg/contracts/domain"
)

// formatCell renders a raw cell, writing absent cells as the null token
func formatCell(f domain.Field) string {
	if f.Absent {
		return config.NullToken
	}
	return f.Text
}

// parseCell is the inverse of formatCell
func parseCell(s string) domain.Field {
	if s == config.NullToken {
		return domain.Absent()
	}
	return domain.Text(s)
}

// formatOptional renders a nullable number with the shortest exact form
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatMinutes formats durations with 4 decimals for exports
func formatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', 4, 64)
}
