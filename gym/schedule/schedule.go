package schedule

import (
	"time"

	"wolfgym.com/wolfgym/utils"
)

// Session types served by the facility.
const (
	TypeGym      = "GYM"
	TypeFullBody = "FULLBODY"
)

// Window is an open interval in minutes since local midnight, end exclusive.
type Window struct {
	StartMin int `yaml:"startMin"`
	EndMin   int `yaml:"endMin"`
}

func (w Window) contains(minute int) bool {
	return minute >= w.StartMin && minute < w.EndMin
}

// SessionRule maps a weekday set and minute range onto a session type. Rules
// are ordered; the first match wins.
type SessionRule struct {
	Days     []time.Weekday `yaml:"days"`
	StartMin int            `yaml:"startMin"`
	EndMin   int            `yaml:"endMin"`
	Type     string         `yaml:"type"`
}

// Schedule is the facility's static configuration: per-weekday open windows,
// session-type rules, and per-weekday auto-close minutes. Immutable at runtime.
type Schedule struct {
	OpenWindows map[time.Weekday]Window `yaml:"openWindows"`
	Sessions    []SessionRule           `yaml:"sessions"`
	AutoClose   map[time.Weekday]int    `yaml:"autoClose"`
}

type Classification struct {
	IsOpen      bool    `json:"isOpen"`
	SessionType *string `json:"sessionType"`
}

// Classify reports whether the facility is open at t and which session type is
// running. The two are independent: a minute inside the open window can still
// have no session rule, and then the type is nil.
func (s *Schedule) Classify(t time.Time) Classification {
	local := t.In(utils.LimaTZ)
	dow := local.Weekday()
	minute := local.Hour()*60 + local.Minute()

	var c Classification
	if w, ok := s.OpenWindows[dow]; ok && w.contains(minute) {
		c.IsOpen = true
	}

	for _, rule := range s.Sessions {
		if rule.StartMin > minute || minute >= rule.EndMin {
			continue
		}
		for _, d := range rule.Days {
			if d == dow {
				c.SessionType = utils.Ptr(rule.Type)
				return c
			}
		}
	}
	return c
}

// AutoCloseMinute returns the minute-of-day at which open records are swept
// closed on the given weekday. Days with no configured close (Sunday) return
// false; the sweep never runs for them.
func (s *Schedule) AutoCloseMinute(dow time.Weekday) (int, bool) {
	m, ok := s.AutoClose[dow]
	return m, ok
}

// Default returns the published facility hours: Mon-Fri 18:00-22:00 with
// FULLBODY until 19:30 then GYM, Saturday 18:00-20:00 FULLBODY only, Sunday
// closed. Auto-close 22:00 Mon-Fri, 20:00 Saturday.
func Default() *Schedule {
	weekdays := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}

	open := make(map[time.Weekday]Window, 6)
	autoClose := make(map[time.Weekday]int, 6)
	for _, d := range weekdays {
		open[d] = Window{StartMin: 18 * 60, EndMin: 22 * 60}
		autoClose[d] = 22 * 60
	}
	open[time.Saturday] = Window{StartMin: 18 * 60, EndMin: 20 * 60}
	autoClose[time.Saturday] = 20 * 60

	return &Schedule{
		OpenWindows: open,
		AutoClose:   autoClose,
		Sessions: []SessionRule{
			{Days: weekdays, StartMin: 18 * 60, EndMin: 19*60 + 30, Type: TypeFullBody},
			{Days: weekdays, StartMin: 19*60 + 30, EndMin: 22 * 60, Type: TypeGym},
			{Days: []time.Weekday{time.Saturday}, StartMin: 18 * 60, EndMin: 20 * 60, Type: TypeFullBody},
		},
	}
}
