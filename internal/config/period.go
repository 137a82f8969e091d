package config

import (
	"strconv"
	"strings"
	"time"
)

// Period statuses of a budget cycle. Murni is the original budget,
// Perubahan the mid-year amendment.
const (
	PeriodMurni     = "Murni"
	PeriodPerubahan = "Perubahan"

	DefaultPeriodStatus = PeriodMurni
)

// PeriodStatuses lists the known period statuses.
var PeriodStatuses = []string{PeriodMurni, PeriodPerubahan}

// NormalizePeriod builds the "<year>-<status>" key used to tag budgets and
// records. year may already carry a status ("2026-perubahan"); an explicit
// status wins. Known statuses are matched case-insensitively and written in
// canonical case; an empty status means Murni.
func NormalizePeriod(year, status string) string {
	year = strings.TrimSpace(year)
	status = strings.TrimSpace(status)

	if y, s, ok := strings.Cut(year, "-"); ok {
		year = strings.TrimSpace(y)
		if status == "" {
			status = strings.TrimSpace(s)
		}
	}
	if year == "" {
		return ""
	}
	if status == "" {
		status = DefaultPeriodStatus
	}
	for _, known := range PeriodStatuses {
		if strings.EqualFold(status, known) {
			status = known
			break
		}
	}
	return year + "-" + status
}

// Period returns the configured working period. A zero year means the
// current calendar year.
func Period(cfg Config) string {
	year := cfg.General.Year
	if year == 0 {
		year = time.Now().Year()
	}
	return NormalizePeriod(strconv.Itoa(year), cfg.General.PeriodStatus)
}
