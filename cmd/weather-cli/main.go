// Package main provides a command-line client for the weather dashboard pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-dashboard/internal/app"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/export"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	city        string
	country     string
	mode        string
	fields      []string
	start       string
	end         string
	summaryText string
	xlsxPath    string
	asJSON      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-cli",
		Short: "Query weather data and summaries from the command line",
	}

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Fetch and print weather data for a city",
		Long: `query resolves the city, fetches the selected fields from Open-Meteo and
prints the decoded table. With --summary the table is also summarised.`,
		Args: cobra.NoArgs,
		RunE: runQuery,
	}
	queryCmd.Flags().StringVar(&city, "city", "", "City name")
	queryCmd.Flags().StringVar(&country, "country", "", "Country name")
	queryCmd.Flags().StringVar(&mode, "mode", "current", "Query mode: current, hourly, daily")
	queryCmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to fetch (default: all for the mode)")
	queryCmd.Flags().StringVar(&start, "start", "", "Range start (2006-01-02 daily, 2006-01-02T15:04 hourly)")
	queryCmd.Flags().StringVar(&end, "end", "", "Range end (defaults to start for daily, start+1h for hourly)")
	queryCmd.Flags().StringVar(&summaryText, "summary", "", "Context for an AI summary of the table")
	queryCmd.Flags().StringVarP(&xlsxPath, "xlsx", "o", "", "Also write the table to an XLSX file")
	queryCmd.Flags().BoolVar(&asJSON, "json", false, "Print the chart view as JSON")
	_ = queryCmd.MarkFlagRequired("city")
	_ = queryCmd.MarkFlagRequired("country")

	fieldsCmd := &cobra.Command{
		Use:   "fields [mode]",
		Short: "List the fields a mode offers",
		Args:  cobra.ExactArgs(1),
		RunE:  runFields,
	}

	rootCmd.AddCommand(queryCmd, fieldsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFields(cmd *cobra.Command, args []string) error {
	m, err := weather.ParseMode(args[0])
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mapping, err := weather.LoadFieldMapping(cfg.MappingFile)
	if err != nil {
		return err
	}
	for _, name := range mapping.Options(m) {
		fmt.Println(name)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	m, err := weather.ParseMode(mode)
	if err != nil {
		return err
	}
	bounds, err := cliBounds(m, start, end)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	replyCache := app.ProvideCache(cfg)
	defer replyCache.Close()

	svc, err := app.ProvideWeather(cfg, replyCache)
	if err != nil {
		return err
	}
	resolver, err := app.ProvidePlaces(cfg)
	if err != nil {
		return err
	}
	loc, err := resolver.Resolve(city, country)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.HTTPTimeout)
	defer cancel()

	table, err := svc.Query(ctx, weather.Request{Mode: m, Location: loc, Fields: fields, Bounds: bounds})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if asJSON {
		out, err := json.MarshalIndent(weather.Adapt(table, cfg.Chart()), "", "  ")
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Println(table.String())
	}

	if xlsxPath != "" {
		f, err := os.Create(xlsxPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		if err := export.WriteXLSX(f, table, cfg.Chart().UnitFor); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if strings.TrimSpace(summaryText) != "" {
		summarySvc := app.ProvideSummary(cfg)
		defer summarySvc.Selector().Stop()
		res := summarySvc.Summarize(cmd.Context(), summaryText, loc.City, loc.Country, table)
		fmt.Printf("\n[%s] %s\n", res.Model, res.Text)
	}
	return nil
}

// cliBounds parses --start/--end for the mode. An empty end means the start
// day for daily queries and one hour after start for hourly ones, matching the
// HTTP API.
func cliBounds(m weather.Mode, start, end string) (weather.Bounds, error) {
	if m == weather.ModeCurrent {
		return weather.Bounds{}, nil
	}
	if start == "" {
		return weather.Bounds{}, fmt.Errorf("--start is required for %s queries", m)
	}

	layout := weather.DateTimeLayout
	if m == weather.ModeDaily {
		layout = weather.DateLayout
	}
	s, err := time.Parse(layout, start)
	if err != nil {
		return weather.Bounds{}, fmt.Errorf("invalid start %q: use %s", start, layout)
	}
	e := s
	if end != "" {
		if e, err = time.Parse(layout, end); err != nil {
			return weather.Bounds{}, fmt.Errorf("invalid end %q: use %s", end, layout)
		}
	} else if m == weather.ModeHourly {
		e = s.Add(time.Hour)
	}
	if m == weather.ModeDaily {
		return weather.DateRange(s, e), nil
	}
	return weather.DateTimeRange(s, e), nil
}
