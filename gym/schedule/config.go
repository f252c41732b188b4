package schedule

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File format uses numeric weekdays (0=Sunday .. 6=Saturday) so the YAML stays
// close to the facility's published table.
type fileWindow struct {
	StartMin int `yaml:"startMin"`
	EndMin   int `yaml:"endMin"`
}

type fileRule struct {
	Days     []int  `yaml:"days"`
	StartMin int    `yaml:"startMin"`
	EndMin   int    `yaml:"endMin"`
	Type     string `yaml:"type"`
}

type fileSchedule struct {
	OpenWindows map[int]fileWindow `yaml:"openWindows"`
	Sessions    []fileRule         `yaml:"sessions"`
	AutoClose   map[int]int        `yaml:"autoClose"`
}

// Load reads a schedule override from a YAML file. An empty path returns the
// compiled-in default.
func Load(path string) (*Schedule, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var fs fileSchedule
	if err := yaml.Unmarshal(raw, &fs); err != nil {
		return nil, fmt.Errorf("invalid schedule file %s: %w", path, err)
	}

	s := &Schedule{
		OpenWindows: make(map[time.Weekday]Window, len(fs.OpenWindows)),
		AutoClose:   make(map[time.Weekday]int, len(fs.AutoClose)),
	}
	for dow, w := range fs.OpenWindows {
		if dow < 0 || dow > 6 {
			return nil, fmt.Errorf("invalid weekday %d in openWindows", dow)
		}
		s.OpenWindows[time.Weekday(dow)] = Window{StartMin: w.StartMin, EndMin: w.EndMin}
	}
	for dow, minute := range fs.AutoClose {
		if dow < 0 || dow > 6 {
			return nil, fmt.Errorf("invalid weekday %d in autoClose", dow)
		}
		s.AutoClose[time.Weekday(dow)] = minute
	}
	for _, r := range fs.Sessions {
		rule := SessionRule{StartMin: r.StartMin, EndMin: r.EndMin, Type: r.Type}
		for _, dow := range r.Days {
			if dow < 0 || dow > 6 {
				return nil, fmt.Errorf("invalid weekday %d in sessions", dow)
			}
			rule.Days = append(rule.Days, time.Weekday(dow))
		}
		s.Sessions = append(s.Sessions, rule)
	}

	return s, nil
}
