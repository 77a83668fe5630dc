package directory

import (
	"encoding/json"
	"fmt"
	"time"
)

// Window is one day's opening interval, "HH:MM" to "HH:MM".
type Window struct {
	Start  string `json:"inicio"`
	End    string `json:"fim"`
	Closed bool   `json:"fechado,omitempty"`
}

// OperatingHours maps a weekday key (dom, seg, ter, qua, qui, sex, sab) to
// its window. Empty hours mean always open; a missing day means closed.
type OperatingHours map[string]Window

var weekdayKeys = [...]string{"dom", "seg", "ter", "qua", "qui", "sex", "sab"}

// ParseHours decodes a stored horario_funcionamento value.
func ParseHours(raw []byte) (OperatingHours, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var h OperatingHours
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decode operating hours: %w", err)
	}
	return h, nil
}

// IsOpen reports whether t falls inside the window for t's weekday, and a
// short reason when it does not.
func (h OperatingHours) IsOpen(t time.Time) (bool, string) {
	if len(h) == 0 {
		return true, ""
	}
	day := weekdayKeys[t.Weekday()]
	w, ok := h[day]
	if !ok || w.Closed {
		return false, "closed on " + day
	}

	start, err := minutes(w.Start)
	if err != nil {
		return false, err.Error()
	}
	end, err := minutes(w.End)
	if err != nil {
		return false, err.Error()
	}
	now := t.Hour()*60 + t.Minute()
	if now < start || now >= end {
		return false, fmt.Sprintf("outside %s-%s on %s", w.Start, w.End, day)
	}
	return true, ""
}

func minutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}
