package mock

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

//go:embed data.yaml
var rawData []byte

type dataFile struct {
	Demo     []model.Driver  `yaml:"demo"`
	Grid2025 []model.Driver  `yaml:"grid2025"`
	Calendar []model.Meeting `yaml:"calendar2025"`
}

var (
	loadOnce sync.Once
	loaded   dataFile
	loadErr  error
)

func data() (*dataFile, error) {
	loadOnce.Do(func() {
		loadErr = parseData(rawData, &loaded)
	})
	return &loaded, loadErr
}

func parseData(raw []byte, target *dataFile) error {
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("mock data: %w", err)
	}
	for i := range target.Calendar {
		if target.Calendar[i].Year == 0 {
			target.Calendar[i].Year = target.Calendar[i].DateStart.Year()
		}
	}
	return nil
}

func mustData() *dataFile {
	d, err := data()
	if err != nil {
		panic(err)
	}
	return d
}

// DemoRoster returns the ten drivers injected when no live session exists
func DemoRoster() []model.Driver {
	return slices.Clone(mustData().Demo)
}

// Grid2025 returns the full 2025 grid
func Grid2025() []model.Driver {
	return slices.Clone(mustData().Grid2025)
}

// FallbackCalendar returns the embedded 2025 calendar in date order
func FallbackCalendar() []model.Meeting {
	return slices.Clone(mustData().Calendar)
}
