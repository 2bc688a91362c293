package store

import (
	"errors"
	"slices"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// maxDismissed bounds the number of remembered dismissed alerts
const maxDismissed = 100

// errUnchanged aborts a mutation that would not alter the state
var errUnchanged = errors.New("unchanged")

func (s *Store) AddAlert(a model.Alert) bool {
	return s.AddAlerts([]model.Alert{a}) > 0
}

// AddAlerts adds the alerts not yet present (same date and message) and not dismissed.
// The log is kept most recent first and capped. Returns the number of added alerts
// remaining in the log after the cap is applied.
func (s *Store) AddAlerts(alerts []model.Alert) int {
	added := 0
	_ = s.mutate(func(st *Snapshot) error {
		known := make(map[model.AlertKey]struct{}, len(st.Alerts)+len(s.dismissed))
		for i := range st.Alerts {
			known[st.Alerts[i].Key()] = struct{}{}
		}
		for _, k := range s.dismissed {
			known[k] = struct{}{}
		}
		fresh := make(map[model.AlertKey]struct{}, len(alerts))
		merged := slices.Clone(st.Alerts)
		for _, a := range alerts {
			k := a.Key()
			if _, ok := known[k]; ok {
				continue
			}
			known[k] = struct{}{}
			fresh[k] = struct{}{}
			if a.ID == "" {
				a.ID = model.AlertID(k)
			}
			merged = append(merged, a)
		}
		if len(fresh) == 0 {
			return errUnchanged
		}
		slices.SortStableFunc(merged, func(a, b model.Alert) int {
			return b.Date.Compare(a.Date)
		})
		if len(merged) > s.maxAlerts {
			merged = merged[:s.maxAlerts]
		}
		for i := range merged {
			if _, ok := fresh[merged[i].Key()]; ok {
				added++
			}
		}
		if added == 0 {
			return errUnchanged
		}
		st.Alerts = merged
		return nil
	})
	return added
}

// DismissAlert removes the alert at index. The alert is remembered,
// so later polls do not add it again.
func (s *Store) DismissAlert(index int) error {
	return s.mutate(func(st *Snapshot) error {
		if index < 0 || index >= len(st.Alerts) {
			return ErrInvalidAlertIndex
		}
		s.dismissed = append(s.dismissed, st.Alerts[index].Key())
		if len(s.dismissed) > maxDismissed {
			s.dismissed = slices.Delete(s.dismissed, 0, len(s.dismissed)-maxDismissed)
		}
		st.Alerts = slices.Delete(slices.Clone(st.Alerts), index, index+1)
		return nil
	})
}
