package upcoming

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-livetiming-go/pkg/calendar"
	cmdutil "github.com/mpapenbr/f1-livetiming-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-livetiming-go/pkg/config"
	"github.com/mpapenbr/f1-livetiming-go/pkg/mock"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/upstream/openf1"
)

type Meetings interface {
	Meetings(ctx context.Context, year int) []model.Meeting
}

var (
	limit  int
	asJSON bool
)

func NewUpcomingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "prints the next race meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogger()
			client := openf1.NewClient(openf1.WithBaseURL(config.OpenF1URL))
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			list := next(ctx, client, time.Now(), limit)
			return write(cmd.OutOrStdout(), list, asJSON)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", calendar.DefaultLimit, "number of meetings to print")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json instead of a table")
	return cmd
}

// next falls back to the built-in calendar when the upstream has no future meeting
//
//nolint:whitespace // can't make both editor and linter happy
func next(
	ctx context.Context, src Meetings, now time.Time, n int,
) []model.Meeting {
	return calendar.Next(now, n, src.Meetings(ctx, now.Year()), mock.FallbackCalendar())
}

func write(out io.Writer, list []model.Meeting, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "no upcoming meetings")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMEETING\tCIRCUIT\tCOUNTRY")
	for i := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			list[i].DateStart.Format(time.DateOnly),
			list[i].MeetingName,
			list[i].CircuitShortName,
			list[i].CountryName)
	}
	return w.Flush()
}
