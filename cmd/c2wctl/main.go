// Command c2wctl prints the trade forecast dashboard in a terminal and
// exports the country leaderboard to a spreadsheet.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"c2w-go-api/internal/config"
	"c2w-go-api/internal/export"
	"c2w-go-api/internal/logging"
	"c2w-go-api/internal/models"
	"c2w-go-api/internal/months"
	"c2w-go-api/internal/services"
	"c2w-go-api/pkg/backend"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error().Err(err).Msg("c2wctl failed")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	backendFlag := &cli.StringFlag{
		Name:    "backend",
		Usage:   "analytics backend base URL",
		EnvVars: []string{"BACKEND_ADDRESS"},
	}
	countryFlag := &cli.StringFlag{Name: "country", Aliases: []string{"c"}, Usage: "country to chart", Required: true}
	productFlag := &cli.StringFlag{Name: "product", Aliases: []string{"p"}, Usage: "product id", Required: true}

	return &cli.App{
		Name:  "c2wctl",
		Usage: "inspect trade sales forecasts",
		Flags: []cli.Flag{
			backendFlag,
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "upstream request timeout"},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			logging.Init(c.String("log-level"), true)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "dashboard",
				Usage: "print the aligned sales/prediction series and the leaderboard",
				Flags: []cli.Flag{
					countryFlag,
					productFlag,
					&cli.IntFlag{Name: "future", Value: 5, Usage: "months to extrapolate, 0 uses the default of 5"},
				},
				Action: func(c *cli.Context) error {
					if c.Int("future") < 0 {
						return fmt.Errorf("--future must not be negative, got %d", c.Int("future"))
					}
					o, err := orchestrator(c)
					if err != nil {
						return err
					}
					d, err := o.BuildDashboard(c.Context, services.DashboardRequest{
						Country:     c.String("country"),
						ProductID:   c.String("product"),
						FutureCount: c.Int("future"),
					})
					if err != nil {
						return err
					}
					printSeries(c.App.Writer, d.Series)
					fmt.Fprintln(c.App.Writer)
					printLeaderboard(c.App.Writer, d.Forecasts)
					return nil
				},
			},
			{
				Name:  "leaderboard",
				Usage: "print countries ranked by forecast growth rate",
				Flags: []cli.Flag{productFlag},
				Action: func(c *cli.Context) error {
					o, err := orchestrator(c)
					if err != nil {
						return err
					}
					ranked, err := o.Leaderboard(c.Context, c.String("product"))
					if err != nil {
						return err
					}
					printLeaderboard(c.App.Writer, ranked)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the leaderboard to an .xlsx file",
				Flags: []cli.Flag{
					productFlag,
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "leaderboard.xlsx"},
				},
				Action: func(c *cli.Context) error {
					o, err := orchestrator(c)
					if err != nil {
						return err
					}
					ranked, err := o.Leaderboard(c.Context, c.String("product"))
					if err != nil {
						return err
					}

					out, err := os.Create(c.String("output"))
					if err != nil {
						return err
					}
					if err := export.WriteLeaderboard(out, c.String("product"), ranked); err != nil {
						out.Close()
						return err
					}
					if err := out.Close(); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %d rows to %s\n", len(ranked), c.String("output"))
					return nil
				},
			},
			{
				Name:      "months",
				Usage:     "print the months following a given month",
				ArgsUsage: "<month> [count]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return errors.New("month is required")
					}
					n := 5
					if c.NArg() > 1 {
						if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &n); err != nil {
							return fmt.Errorf("count must be an integer: %w", err)
						}
					}
					next, err := months.NextNames(c.Args().First(), n)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, strings.Join(next, ", "))
					return nil
				},
			},
		},
	}
}

func orchestrator(c *cli.Context) (*services.DashboardOrchestrator, error) {
	cfg := &config.Config{
		BackendAddress:       c.String("backend"),
		CacheTTL:             time.Minute,
		MaxConcurrentFetches: 2,
		FutureMonths:         5,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := services.NewCacheService(cfg)
	upstream := backend.NewClient(cfg.BackendAddress, c.Duration("timeout"))
	return services.NewDashboardOrchestrator(cfg, services.NewTradeDataService(cfg, cache, upstream), cache), nil
}

func printSeries(w io.Writer, s *models.ChartSeries) {
	if len(s.Labels) == 0 {
		fmt.Fprintln(w, "no sales data yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tSALES\tPREDICTION")
	for i, label := range s.Labels {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", label, cell(s.Sales[i]), cell(s.Predictions[i]))
	}
	tw.Flush()

	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func printLeaderboard(w io.Writer, ranked []models.RankedForecast) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "no forecasts available")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCOUNTRY\tFORECAST\tGROWTH RATE")
	for _, r := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Rank, r.Country, r.Display.Summary, r.Display.GrowthRate)
	}
	tw.Flush()
}

func cell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
