package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/anggaran/internal/config"
	"github.com/theirongolddev/anggaran/internal/model"
	"github.com/theirongolddev/anggaran/internal/tui/theme"
)

// SetupValues are the fields edited by the setup form.
type SetupValues struct {
	Year         string
	PeriodStatus string
	DataDir      string
	ShowSymbol   bool
	Theme        string
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	year := ""
	if cfg.General.Year > 0 {
		year = strconv.Itoa(cfg.General.Year)
	}
	return SetupValues{
		Year:         year,
		PeriodStatus: cfg.General.PeriodStatus,
		DataDir:      cfg.General.DataDir,
		ShowSymbol:   cfg.Currency.ShowSymbol,
		Theme:        cfg.Appearance.Theme,
	}
}

// Apply copies the values into cfg. An empty year means the current year.
func (v SetupValues) Apply(cfg *config.Config) error {
	year := 0
	if s := strings.TrimSpace(v.Year); s != "" {
		n, err := validateYear(s)
		if err != nil {
			return err
		}
		year = n
	}
	cfg.General.Year = year
	cfg.General.PeriodStatus = v.PeriodStatus
	cfg.General.DataDir = strings.TrimSpace(v.DataDir)
	cfg.Currency.ShowSymbol = v.ShowSymbol
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	return nil
}

func validateYear(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 2000 || n > 2100 {
		return 0, fmt.Errorf("tahun %q tidak valid", s)
	}
	return n, nil
}

// NewSetupForm builds the setup form bound to v.
func NewSetupForm(v *SetupValues) *huh.Form {
	statusOpts := make([]huh.Option[string], len(config.PeriodStatuses))
	for i, s := range config.PeriodStatuses {
		statusOpts[i] = huh.NewOption(s, s)
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Pengaturan anggaran").
				Description("Periode kerja dan lokasi data impor."),
			huh.NewInput().
				Title("Tahun anggaran").
				Description("Kosongkan untuk tahun berjalan.").
				Placeholder("2026").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := validateYear(strings.TrimSpace(s))
					return err
				}).
				Value(&v.Year),
			huh.NewSelect[string]().
				Title("Status periode").
				Options(statusOpts...).
				Value(&v.PeriodStatus),
			huh.NewInput().
				Title("Direktori data").
				Description("Berisi file <koleksi>.json untuk perintah import.").
				Value(&v.DataDir),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Tampilkan simbol mata uang?").
				Value(&v.ShowSymbol),
			huh.NewSelect[string]().
				Title("Tema").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	)
}

// RunSetup runs the setup form and applies the answers to cfg.
func RunSetup(cfg *config.Config) error {
	v := SetupValuesFrom(*cfg)
	if err := NewSetupForm(&v).Run(); err != nil {
		return err
	}
	return v.Apply(cfg)
}

// accountOptions lists candidates as select options, with a leading
// option whose value is empty for skipping.
func accountOptions(candidates []model.AccountCode) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(candidates)+1)
	opts = append(opts, huh.NewOption("(lewati)", ""))
	for _, ac := range candidates {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s  %s", ac.DisplayCode(), ac.Name), ac.ID))
	}
	return opts
}

// PickAccount asks the user to choose the account for an allocation that
// needs manual selection. It returns "" when the user skips.
func PickAccount(a model.Allocation, amount string, candidates []model.AccountCode) (string, error) {
	note := a.Note
	if note == "" {
		note = "(tanpa catatan)"
	}

	var choice string
	err := huh.NewSelect[string]().
		Title("Pilih kode rekening").
		Description(fmt.Sprintf("%s · %s", note, amount)).
		Options(accountOptions(candidates)...).
		Value(&choice).
		Run()
	if err != nil {
		return "", err
	}
	return choice, nil
}
