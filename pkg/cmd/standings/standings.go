package standings

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-livetiming-go/log"
	cmdutil "github.com/mpapenbr/f1-livetiming-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-livetiming-go/pkg/config"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/upstream/jolpica"
)

const (
	kindDrivers      = "drivers"
	kindConstructors = "constructors"
	kindResults      = "results"
)

type (
	Source interface {
		SeasonResults(ctx context.Context, season int) ([]model.Race, error)
		DriverStandings(ctx context.Context, season int) ([]model.DriverStanding, error)
		ConstructorStandings(ctx context.Context, season int) ([]model.ConstructorStanding, error)
	}
	printer struct {
		src    Source
		season int
		asJSON bool
		out    io.Writer
	}
)

var (
	kind   string
	asJSON bool
)

func NewStandingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "prints season results and championship standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogger()
			p := &printer{
				src:    jolpica.NewClient(jolpica.WithBaseURL(config.JolpicaURL)),
				season: config.Season,
				asJSON: asJSON,
				out:    cmd.OutOrStdout(),
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return p.print(ctx, kind)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", kindDrivers,
		"what to print (drivers, constructors, results)")
	cmd.Flags().IntVar(&config.Season, "season", 0,
		"season to print (0: current year)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json instead of a table")
	return cmd
}

func (p *printer) print(ctx context.Context, what string) error {
	switch what {
	case kindDrivers:
		data, err := p.src.DriverStandings(ctx, p.season)
		if err != nil {
			return err
		}
		return p.emit(data, func(w io.Writer) {
			fmt.Fprintln(w, "POS\tDRIVER\tTEAM\tPTS\tWINS")
			for i := range data {
				team := ""
				if len(data[i].Constructors) > 0 {
					team = data[i].Constructors[len(data[i].Constructors)-1].Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", data[i].Position,
					data[i].Driver.FullName(), team, data[i].Points, data[i].Wins)
			}
		})
	case kindConstructors:
		data, err := p.src.ConstructorStandings(ctx, p.season)
		if err != nil {
			return err
		}
		return p.emit(data, func(w io.Writer) {
			fmt.Fprintln(w, "POS\tTEAM\tPTS\tWINS")
			for i := range data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", data[i].Position,
					data[i].Constructor.Name, data[i].Points, data[i].Wins)
			}
		})
	case kindResults:
		data, err := p.src.SeasonResults(ctx, p.season)
		if err != nil {
			return err
		}
		return p.emit(data, func(w io.Writer) {
			fmt.Fprintln(w, "ROUND\tRACE\tDATE\tWINNER")
			for i := range data {
				winner := "-"
				if len(data[i].Results) > 0 {
					winner = data[i].Results[0].Driver.FullName()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", data[i].Round,
					data[i].RaceName, data[i].Date, winner)
			}
		})
	default:
		return fmt.Errorf("unknown kind %q", what)
	}
}

func (p *printer) emit(data any, table func(w io.Writer)) error {
	if p.asJSON {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	table(w)
	if err := w.Flush(); err != nil {
		log.Warn("could not write table", log.ErrorField(err))
		return err
	}
	return nil
}
