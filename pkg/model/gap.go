package model

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// DefaultGap is displayed when no interval data is available
const DefaultGap = "+0.000"

// Gap is a timing gap as delivered by OpenF1.
// The value is either seconds, a text like "+1 LAP" or null.
type Gap struct {
	Seconds *decimal.Decimal
	Text    string
}

func GapSeconds(s float64) Gap {
	d := decimal.NewFromFloat(s)
	return Gap{Seconds: &d}
}

func (g Gap) IsZero() bool {
	return g.Seconds == nil && g.Text == ""
}

// Display renders the gap as "+S.mmm", the text variant as is or def if unset
func (g Gap) Display(def string) string {
	switch {
	case g.Seconds != nil:
		return "+" + g.Seconds.StringFixed(3)
	case g.Text != "":
		return g.Text
	default:
		return def
	}
}

func (g *Gap) UnmarshalJSON(data []byte) error {
	*g = Gap{}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &g.Text)
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("invalid gap %s: %w", data, err)
		}
		g.Seconds = &d
		return nil
	}
}

func (g Gap) MarshalJSON() ([]byte, error) {
	switch {
	case g.Seconds != nil:
		return []byte(g.Seconds.String()), nil
	case g.Text != "":
		return json.Marshal(g.Text)
	default:
		return []byte("null"), nil
	}
}
