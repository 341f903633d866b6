package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/class-timetable-api/internal/catalog"
	"github.com/noah-isme/class-timetable-api/internal/dto"
	"github.com/noah-isme/class-timetable-api/internal/models"
	"github.com/noah-isme/class-timetable-api/internal/service"
	"github.com/noah-isme/class-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/class-timetable-api/pkg/errors"
	"github.com/noah-isme/class-timetable-api/pkg/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	ruleWidth   = 70
)

type options struct {
	catalogPath      string
	restrictionsPath string
	mode             string
	maxNodes         int
	icsPath          string
	jsonPath         string
	dumpCSVPath      string
	timezone         string
	weeks            int
	logLevel         string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("timetable-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.catalogPath, "catalog", "", "course catalog (.json or .csv)")
	fs.StringVar(&opts.restrictionsPath, "restrictions", "", "JSON file of per-day time restrictions")
	fs.StringVar(&opts.mode, "mode", string(timetable.ModeFirstFound), "search mode: first or exhaustive")
	fs.IntVar(&opts.maxNodes, "max-nodes", 0, "abort after visiting this many candidates (0 = unbounded)")
	fs.StringVar(&opts.icsPath, "ics", "", "write an iCalendar file")
	fs.StringVar(&opts.jsonPath, "json", "", "write the JSON schedule document")
	fs.StringVar(&opts.dumpCSVPath, "dump-csv", "", "write the loaded catalog as CSV")
	fs.StringVar(&opts.timezone, "tz", "America/Toronto", "timezone of calendar events")
	fs.IntVar(&opts.weeks, "weeks", 12, "number of weekly occurrences per calendar event")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.catalogPath == "" {
		fs.Usage()
		return opts, errors.New("-catalog is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	mode, err := timetable.ParseMode(opts.mode)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logr, err := logger.NewConsole(opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer logr.Sync() //nolint:errcheck

	courses, err := catalog.LoadFile(opts.catalogPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if opts.dumpCSVPath != "" {
		if err := dumpCatalog(opts.dumpCSVPath, courses); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "wrote %s\n", opts.dumpCSVPath)
	}
	req := dto.GenerateTimetableRequest{Courses: courses, Mode: string(mode)}
	if opts.restrictionsPath != "" {
		restrictions, err := loadRestrictions(opts.restrictionsPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		req.Restrictions = restrictions
	}

	svc, err := service.NewTimetableService(nil, nil, nil, logr, service.TimetableConfig{
		Mode:          mode,
		MaxNodes:      opts.maxNodes,
		Timezone:      opts.timezone,
		CalendarWeeks: opts.weeks,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	resp, err := svc.Generate(ctx, req)
	if err != nil {
		reportError(stderr, err)
		return exitFailure
	}
	printWeek(stdout, resp)
	logr.Debug("search finished", zap.Int("nodes", resp.Stats.NodesVisited), zap.Float64("score", resp.Score))

	exports := []struct{ format, path string }{
		{service.FormatICS, opts.icsPath},
		{service.FormatJSON, opts.jsonPath},
	}
	for _, export := range exports {
		if export.path == "" {
			continue
		}
		if err := writeExport(ctx, svc, resp.ID, export.format, export.path); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "wrote %s\n", export.path)
	}
	return exitOK
}

func dumpCatalog(path string, courses models.Catalog) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := catalog.WriteCSV(file, courses); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func loadRestrictions(path string) (*dto.TimeRestrictions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read restrictions: %w", err)
	}
	var restrictions dto.TimeRestrictions
	if err := json.Unmarshal(raw, &restrictions); err != nil {
		return nil, fmt.Errorf("decode restrictions %s: %w", path, err)
	}
	return &restrictions, nil
}

func writeExport(ctx context.Context, svc *service.TimetableService, id, format, path string) error {
	file, err := svc.Export(ctx, id, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, file.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func reportError(w io.Writer, err error) {
	appErr := appErrors.FromError(err)
	fmt.Fprintf(w, "%s: %s\n", appErr.Code, appErr.Message)
	switch details := appErr.Details.(type) {
	case []models.Infeasibility:
		for _, issue := range details {
			fmt.Fprintf(w, "  - %s\n", issue.Message)
		}
	case []string:
		for _, detail := range details {
			fmt.Fprintf(w, "  - %s\n", detail)
		}
	}
}

func printWeek(w io.Writer, resp *dto.TimetableResponse) {
	rule := strings.Repeat("-", ruleWidth)
	fmt.Fprintf(w, "Weekly timetable (%s search, score %.2f)\n", resp.Mode, resp.Score)
	for _, day := range resp.Weekly {
		fmt.Fprintf(w, "\n%s\n%s\n", day.Day, rule)
		if len(day.Sessions) == 0 {
			fmt.Fprintln(w, "  No classes scheduled")
			continue
		}
		for _, s := range day.Sessions {
			fmt.Fprintf(w, "  %s - %s\n", s.CourseCode, s.Type)
			fmt.Fprintf(w, "    %s - %s\n", s.StartTime, s.EndTime)
			fmt.Fprintf(w, "    Room: %s\n", s.Room)
			fmt.Fprintf(w, "    Campus: %s\n", s.Campus)
			fmt.Fprintf(w, "    CRN: %s\n", s.CRN)
		}
	}
}
