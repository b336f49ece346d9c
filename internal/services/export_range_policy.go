package services

import (
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/rehab360/internal/models"
)

var (
	ErrExportFromDateInvalid = errors.New("export invalid from date")
	ErrExportToDateInvalid   = errors.New("export invalid to date")
	ErrExportRangeInvalid    = errors.New("export invalid range")
)

// ExportRange bounds are inclusive log dates; an empty bound is open.
type ExportRange struct {
	From string
	To   string
}

func (r ExportRange) Contains(logDate string) bool {
	if r.From != "" && logDate < r.From {
		return false
	}
	if r.To != "" && logDate > r.To {
		return false
	}
	return true
}

func ParseExportRange(rawFrom string, rawTo string) (ExportRange, error) {
	fromRaw := strings.TrimSpace(rawFrom)
	toRaw := strings.TrimSpace(rawTo)

	var exportRange ExportRange
	if fromRaw != "" {
		parsedFrom, err := time.Parse(models.LogDateLayout, fromRaw)
		if err != nil {
			return ExportRange{}, ErrExportFromDateInvalid
		}
		exportRange.From = parsedFrom.Format(models.LogDateLayout)
	}
	if toRaw != "" {
		parsedTo, err := time.Parse(models.LogDateLayout, toRaw)
		if err != nil {
			return ExportRange{}, ErrExportToDateInvalid
		}
		exportRange.To = parsedTo.Format(models.LogDateLayout)
	}

	if exportRange.From != "" && exportRange.To != "" && exportRange.To < exportRange.From {
		return ExportRange{}, ErrExportRangeInvalid
	}
	return exportRange, nil
}
