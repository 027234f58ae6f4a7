package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/config"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/prayer"
)

type timingsSource interface {
	FetchDay(ctx context.Context, date time.Time, q aladhan.Query) (prayer.Baseline, error)
}

type timetableFlags struct {
	date      string
	latitude  float64
	longitude float64
	method    int
	school    int
	timezone  string
	style     string
	json      bool
}

// timetableRequest is what the command resolved from a masjid code or flags.
// A nil loc defers to the provider's zone.
type timetableRequest struct {
	label       string
	query       aladhan.Query
	adjustments prayer.Adjustments
	loc         *time.Location
}

func newTimetableCmd(cfg func() *config.Config, d deps) *cobra.Command {
	var fl timetableFlags

	cmd := &cobra.Command{
		Use:   "timetable [code]",
		Short: "Print the adjusted prayer timetable",
		Long: "Print one day of prayer times. With a masjid code the masjid's location, calculation\n" +
			"settings and adjustments are used; otherwise --latitude/--longitude are required.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				req timetableRequest
				err error
			)
			if len(args) == 1 {
				req, err = requestForCode(ctx, cfg(), d, strings.ToUpper(args[0]))
			} else {
				req, err = requestForFlags(cmd, fl)
			}
			if err != nil {
				return err
			}

			style := prayer.LabelParenthesized
			if fl.style == "plain" {
				style = prayer.LabelPlain
			}

			src := d.timings(cfg())
			var (
				baseline prayer.Baseline
				now      time.Time
			)
			if fl.date == "" {
				baseline, now, err = aladhan.FetchLocalDay(ctx, src, time.Now(), req.loc, req.query)
			} else {
				loc := req.loc
				if loc == nil {
					loc = time.UTC
				}
				day, perr := time.ParseInLocation("2006-01-02", fl.date, loc)
				if perr != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", fl.date)
				}
				baseline, err = src.FetchDay(ctx, day, req.query)
				now = time.Now().In(loc)
				if zone, ok := baseline.Location(); ok && req.loc == nil {
					now = now.In(zone)
				}
			}
			if err != nil {
				return fmt.Errorf("fetch timings: %w", err)
			}
			tt := prayer.BuildTimetable(baseline, req.adjustments, style)

			out := cmd.OutOrStdout()
			if fl.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tt)
			}
			var nowClock *prayer.Clock
			if baseline.Date == now.Format("2006-01-02") {
				c := prayer.ClockOf(now)
				nowClock = &c
			}
			printTimetable(out, req.label, tt, nowClock)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.date, "date", "", "Day to print (YYYY-MM-DD, default today)")
	f.Float64Var(&fl.latitude, "latitude", 0, "Latitude when no code is given")
	f.Float64Var(&fl.longitude, "longitude", 0, "Longitude when no code is given")
	f.IntVar(&fl.method, "method", 2, "Calculation method (0-23) when no code is given")
	f.IntVar(&fl.school, "school", 0, "Juristic school (0=Shafi, 1=Hanafi) when no code is given")
	f.StringVar(&fl.timezone, "timezone", "", "IANA timezone when no code is given")
	f.StringVar(&fl.style, "style", "parenthesized", "Adjustment label style: parenthesized or plain")
	f.BoolVar(&fl.json, "json", false, "Output as JSON")
	return cmd
}

func requestForCode(ctx context.Context, cfg *config.Config, d deps, code string) (timetableRequest, error) {
	store, err := d.openStore(cfg)
	if err != nil {
		return timetableRequest{}, err
	}
	m, err := store.GetMasjidByCode(ctx, code)
	if err != nil {
		return timetableRequest{}, fmt.Errorf("masjid %s: %w", code, err)
	}
	s, err := store.GetSettings(ctx, m.ID)
	if err != nil {
		return timetableRequest{}, fmt.Errorf("settings for %s: %w", code, err)
	}
	if !m.HasLocation() || !s.PrayerConfigured() {
		return timetableRequest{}, fmt.Errorf("masjid %s has no location or prayer settings yet", code)
	}
	zone, _ := m.Zone()
	return timetableRequest{
		label: fmt.Sprintf("%s [%s]", m.Name, m.Code),
		query: aladhan.Query{
			Latitude:    *m.Latitude,
			Longitude:   *m.Longitude,
			Method:      *s.CalculationMethod,
			School:      *s.JuristicSchool,
			HijriMethod: s.HijriCalculationMethod,
			HijriOffset: s.HijriOffset,
		},
		adjustments: s.PrayerAdjustments,
		loc:         zone,
	}, nil
}

func requestForFlags(cmd *cobra.Command, fl timetableFlags) (timetableRequest, error) {
	if !cmd.Flags().Changed("latitude") || !cmd.Flags().Changed("longitude") {
		return timetableRequest{}, fmt.Errorf("give a masjid code or both --latitude and --longitude")
	}
	if fl.method < 0 || fl.method > 23 {
		return timetableRequest{}, fmt.Errorf("--method must be between 0 and 23")
	}
	if fl.school != 0 && fl.school != 1 {
		return timetableRequest{}, fmt.Errorf("--school must be 0 or 1")
	}
	var loc *time.Location
	if fl.timezone != "" {
		l, err := time.LoadLocation(fl.timezone)
		if err != nil {
			return timetableRequest{}, fmt.Errorf("invalid --timezone %q: %w", fl.timezone, err)
		}
		loc = l
	}
	return timetableRequest{
		label: fmt.Sprintf("%.4f, %.4f", fl.latitude, fl.longitude),
		query: aladhan.Query{
			Latitude:  fl.latitude,
			Longitude: fl.longitude,
			Method:    fl.method,
			School:    fl.school,
		},
		loc: loc,
	}, nil
}

// printTimetable writes an aligned table. When now is set, the upcoming
// prayer is marked.
func printTimetable(w io.Writer, label string, tt prayer.Timetable, now *prayer.Clock) {
	fmt.Fprintf(w, "%s\n%s", label, tt.Date)
	if tt.Hijri != "" {
		fmt.Fprintf(w, "  %s", tt.Hijri)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	var next string
	if now != nil {
		if row, _, ok := tt.Next(*now); ok {
			next = row.Title
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range tt.Rows {
		marker := ""
		if r.Title == next {
			marker = "<- next"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Title, r.Display, r.Label, marker)
	}
	_ = tw.Flush()
}
