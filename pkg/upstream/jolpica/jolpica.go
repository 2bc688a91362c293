package jolpica

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

var (
	pathTotal   = jp.MustParseString("$.MRData.total")
	pathRaces   = jp.MustParseString("$.MRData.RaceTable.Races[*]")
	pathDrivers = jp.MustParseString(
		"$.MRData.StandingsTable.StandingsLists[0].DriverStandings[*]")
	pathConstructors = jp.MustParseString(
		"$.MRData.StandingsTable.StandingsLists[0].ConstructorStandings[*]")
)

type (
	Client struct {
		baseURL    string
		httpClient *http.Client
		pageSize   int
		l          *log.Logger
	}
	Option func(*Client)
)

func WithBaseURL(arg string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(arg, "/")
	}
}

func WithHTTPClient(arg *http.Client) Option {
	return func(c *Client) {
		c.httpClient = arg
	}
}

func WithPageSize(arg int) Option {
	return func(c *Client) {
		c.pageSize = arg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout:   20 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		pageSize: 100,
		l:        log.Default().Named("jolpica"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func seasonPath(season int) string {
	if season <= 0 {
		return "current"
	}
	return strconv.Itoa(season)
}

func (c *Client) get(ctx context.Context, path string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return oj.Parse(data)
}

// convert re-encodes a generic json node into the target struct
func convert[T any](node any) (T, error) {
	var ret T
	err := oj.Unmarshal([]byte(oj.JSON(node)), &ret)
	return ret, err
}

func convertAll[T any](l *log.Logger, nodes []any) []T {
	ret := make([]T, 0, len(nodes))
	for _, n := range nodes {
		v, err := convert[T](n)
		if err != nil {
			l.Debug("dropping entry", log.ErrorField(err))
			continue
		}
		ret = append(ret, v)
	}
	return ret
}

func intValue(node any) int {
	switch v := node.(type) {
	case string:
		i, _ := strconv.Atoi(v)
		return i
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// SeasonResults fetches all race results of a season following the pagination.
// Races split across pages are merged. Only races with results are returned,
// most recent first.
func (c *Client) SeasonResults(ctx context.Context, season int) ([]model.Race, error) {
	var races []model.Race
	for offset := 0; ; offset += c.pageSize {
		path := fmt.Sprintf("/%s/results.json?limit=%d&offset=%d",
			seasonPath(season), c.pageSize, offset)
		obj, err := c.get(ctx, path)
		if err != nil {
			return nil, err
		}
		page := convertAll[model.Race](c.l, pathRaces.Get(obj))
		races = append(races, page...)
		total := intValue(pathTotal.First(obj))
		c.l.Debug("fetched results page",
			log.Int("offset", offset), log.Int("total", total), log.Int("races", len(page)))
		if offset+c.pageSize >= total || len(page) == 0 {
			break
		}
	}
	return mergeRaces(races), nil
}

func mergeRaces(races []model.Race) []model.Race {
	key := func(r model.Race) string { return r.Season + "-" + r.Round }
	grouped := lo.GroupBy(races, key)
	merged := lo.Map(lo.UniqBy(races, key), func(r model.Race, _ int) model.Race {
		parts := grouped[key(r)]
		r.Results = lo.FlatMap(parts, func(p model.Race, _ int) []model.Result {
			return p.Results
		})
		return r
	})
	ret := lo.Filter(merged, func(r model.Race, _ int) bool { return len(r.Results) > 0 })
	slices.SortStableFunc(ret, func(a, b model.Race) int {
		return b.StartsAt().Compare(a.StartsAt())
	})
	return ret
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Client) DriverStandings(ctx context.Context, season int) (
	[]model.DriverStanding, error,
) {
	obj, err := c.get(ctx, fmt.Sprintf("/%s/driverstandings.json", seasonPath(season)))
	if err != nil {
		return nil, err
	}
	return convertAll[model.DriverStanding](c.l, pathDrivers.Get(obj)), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Client) ConstructorStandings(ctx context.Context, season int) (
	[]model.ConstructorStanding, error,
) {
	obj, err := c.get(ctx, fmt.Sprintf("/%s/constructorstandings.json", seasonPath(season)))
	if err != nil {
		return nil, err
	}
	return convertAll[model.ConstructorStanding](c.l, pathConstructors.Get(obj)), nil
}
