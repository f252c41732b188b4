package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfgym.com/wolfgym/utils"
)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, utils.LimaTZ)
}

func TestClassify(t *testing.T) {
	s := Default()

	tests := []struct {
		name     string
		t        time.Time
		isOpen   bool
		session  string
		nilType  bool
	}{
		{
			name:    "Weekday evening fullbody block",
			t:       at(2025, 3, 12, 18, 30), // Wednesday
			isOpen:  true,
			session: TypeFullBody,
		},
		{
			name:    "Weekday after 19:30 is gym",
			t:       at(2025, 3, 12, 19, 30),
			isOpen:  true,
			session: TypeGym,
		},
		{
			name:    "Saturday 19:30 inside the short window",
			t:       at(2025, 3, 15, 19, 30),
			isOpen:  true,
			session: TypeFullBody,
		},
		{
			name:    "Saturday at close is shut",
			t:       at(2025, 3, 15, 20, 0),
			isOpen:  false,
			nilType: true,
		},
		{
			name:    "Sunday closed regardless of minute",
			t:       at(2025, 3, 16, 19, 0),
			isOpen:  false,
			nilType: true,
		},
		{
			name:    "Weekday morning outside every window",
			t:       at(2025, 3, 12, 9, 0),
			isOpen:  false,
			nilType: true,
		},
		{
			name:    "Open boundary minute counts as open",
			t:       at(2025, 3, 12, 18, 0),
			isOpen:  true,
			session: TypeFullBody,
		},
		{
			name:    "Close boundary minute counts as closed",
			t:       at(2025, 3, 12, 22, 0),
			isOpen:  false,
			nilType: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := s.Classify(tt.t)
			assert.Equal(t, tt.isOpen, c.IsOpen)
			if tt.nilType {
				assert.Nil(t, c.SessionType)
			} else {
				require.NotNil(t, c.SessionType)
				assert.Equal(t, tt.session, *c.SessionType)
			}
		})
	}
}

func TestClassifySessionRuleOrderWins(t *testing.T) {
	s := &Schedule{
		OpenWindows: map[time.Weekday]Window{
			time.Monday: {StartMin: 0, EndMin: 24 * 60},
		},
		Sessions: []SessionRule{
			{Days: []time.Weekday{time.Monday}, StartMin: 600, EndMin: 700, Type: TypeFullBody},
			{Days: []time.Weekday{time.Monday}, StartMin: 600, EndMin: 700, Type: TypeGym},
		},
	}

	c := s.Classify(at(2025, 3, 10, 10, 30))
	require.NotNil(t, c.SessionType)
	assert.Equal(t, TypeFullBody, *c.SessionType)
}

func TestClassifyOpenWithoutSessionRule(t *testing.T) {
	s := &Schedule{
		OpenWindows: map[time.Weekday]Window{
			time.Monday: {StartMin: 8 * 60, EndMin: 12 * 60},
		},
	}

	c := s.Classify(at(2025, 3, 10, 9, 0))
	assert.True(t, c.IsOpen)
	assert.Nil(t, c.SessionType)
}

func TestAutoCloseMinute(t *testing.T) {
	s := Default()

	m, ok := s.AutoCloseMinute(time.Wednesday)
	require.True(t, ok)
	assert.Equal(t, 22*60, m)

	m, ok = s.AutoCloseMinute(time.Saturday)
	require.True(t, ok)
	assert.Equal(t, 20*60, m)

	_, ok = s.AutoCloseMinute(time.Sunday)
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	content := `
openWindows:
  1: {startMin: 360, endMin: 720}
autoClose:
  1: 720
sessions:
  - days: [1]
    startMin: 360
    endMin: 720
    type: GYM
`
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	c := s.Classify(at(2025, 3, 10, 7, 0)) // Monday 07:00
	assert.True(t, c.IsOpen)
	require.NotNil(t, c.SessionType)
	assert.Equal(t, TypeGym, *c.SessionType)

	m, ok := s.AutoCloseMinute(time.Monday)
	require.True(t, ok)
	assert.Equal(t, 720, m)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Sessions)
}

func TestLoadRejectsBadWeekday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autoClose:\n  9: 720\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
