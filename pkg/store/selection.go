package store

import (
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// SetSelection replaces the selection. Duplicates are removed.
// A selection exceeding the maximum is rejected with ErrSelectionFull.
func (s *Store) SetSelection(drivers []int) error {
	sel := lo.Uniq(drivers)
	return s.mutate(func(st *Snapshot) error {
		if len(sel) > s.maxSelection {
			return ErrSelectionFull
		}
		st.Selection = sel
		return nil
	})
}

// SelectDriver adds a driver to the selection
func (s *Store) SelectDriver(driver int) error {
	return s.mutate(func(st *Snapshot) error {
		if slices.Contains(st.Selection, driver) {
			return nil
		}
		if len(st.Selection) >= s.maxSelection {
			return ErrSelectionFull
		}
		st.Selection = append(slices.Clone(st.Selection), driver)
		return nil
	})
}

func (s *Store) DeselectDriver(driver int) {
	_ = s.mutate(func(st *Snapshot) error {
		st.Selection = lo.Without(st.Selection, driver)
		return nil
	})
}

func (s *Store) Selection() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Selection)
}

func (s *Store) SetTelemetryChannel(ch model.TelemetryChannel) error {
	if !ch.Valid() {
		return ErrInvalidChannel
	}
	return s.mutate(func(st *Snapshot) error {
		st.UI.TelemetryChannel = ch
		return nil
	})
}

func (s *Store) SetCircuit(c model.Circuit) error {
	if !c.Valid() {
		return ErrInvalidCircuit
	}
	return s.mutate(func(st *Snapshot) error {
		st.UI.Circuit = c
		return nil
	})
}

func (s *Store) SetMockPaused(paused bool) {
	_ = s.mutate(func(st *Snapshot) error {
		st.UI.MockPaused = paused
		return nil
	})
}
