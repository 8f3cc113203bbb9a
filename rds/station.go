package rds

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	PSLength    = 8
	RTMaxLength = 64
	maxAFCount  = 25
)

// ConfigError reports an invalid station parameter. It is always detected
// before streaming starts; the generator never sees an invalid Station.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("station %s: %s", e.Field, e.Reason)
}

// Station holds the broadcast parameters encoded into the RDS groups.
// A Station is validated once and then treated as immutable; live changes go
// through an Updater and are swapped in whole at a group boundary.
type Station struct {
	PI  uint16    `yaml:"-"`
	PS  string    `yaml:"ps"`
	RT  string    `yaml:"rt"`
	PTY uint8     `yaml:"pty"`
	TP  bool      `yaml:"tp"`
	TA  bool      `yaml:"ta"`
	MS  bool      `yaml:"ms"`
	DI  bool      `yaml:"di"`
	AF  []float64 `yaml:"af"`
}

// ParsePI parses a 16-bit program identification code from hex text, with or
// without a 0x prefix.
func ParsePI(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, &ConfigError{Field: "pi", Reason: "not a 16-bit hex code"}
	}
	return uint16(v), nil
}

// Validate checks field limits and the character set, and pads PS to exactly
// eight characters. It must pass before a Station reaches the group builder.
func (s *Station) Validate() error {
	if len(s.PS) > PSLength {
		return &ConfigError{Field: "ps", Reason: fmt.Sprintf("longer than %d characters", PSLength)}
	}
	if !inCharset(s.PS) {
		return &ConfigError{Field: "ps", Reason: "not in the RDS character set"}
	}
	s.PS = pad(s.PS, PSLength)
	if len(s.RT) > RTMaxLength {
		return &ConfigError{Field: "rt", Reason: fmt.Sprintf("longer than %d characters", RTMaxLength)}
	}
	if !inCharset(s.RT) {
		return &ConfigError{Field: "rt", Reason: "not in the RDS character set"}
	}
	if s.PTY > 31 {
		return &ConfigError{Field: "pty", Reason: "outside 0..31"}
	}
	if len(s.AF) > maxAFCount {
		return &ConfigError{Field: "af", Reason: fmt.Sprintf("more than %d frequencies", maxAFCount)}
	}
	for _, mhz := range s.AF {
		if _, ok := afCode(mhz); !ok {
			return &ConfigError{Field: "af", Reason: fmt.Sprintf("%.1f MHz outside 87.6..107.9", mhz)}
		}
	}
	return nil
}

// inCharset reports whether every byte is in the transmittable subset of the
// 8-bit RDS basic character set. Only the ASCII-coincident range is accepted;
// the national extension codes are not mapped.
func inCharset(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

type stationFile struct {
	PI      string `yaml:"pi"`
	Station `yaml:",inline"`
}

// LoadStationFile reads station parameters from a YAML file. The result is
// validated before being returned.
func LoadStationFile(path string) (*Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "station file")
	}
	var sf stationFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(err, "station file")
	}
	st := sf.Station
	if sf.PI != "" {
		if st.PI, err = ParsePI(sf.PI); err != nil {
			return nil, err
		}
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Updater is the single-slot pending-update cell between the control surface
// and the group builder. Writers may post from any goroutine; the last write
// wins. The builder drains the slot only at a group boundary, so a group never
// mixes text from two configurations.
type Updater struct {
	pending atomic.Pointer[Station]
}

// Post validates the new configuration and leaves it in the slot.
func (u *Updater) Post(s Station) error {
	if err := s.Validate(); err != nil {
		return err
	}
	u.pending.Store(&s)
	return nil
}

// take removes and returns the pending configuration, or nil.
func (u *Updater) take() *Station {
	return u.pending.Swap(nil)
}
