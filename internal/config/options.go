package config

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RAMBudget is a memory budget expressed in gigabytes.
type RAMBudget float64

// Size-class keywords accepted in place of a number.
var sizeClasses = map[string]RAMBudget{
	"small": 0.2,
	"base":  0.48,
	"large": 1.0,
	"xl":    4.0,
	"xxl":   16.0,
}

// ParseRAM converts a RAM string to gigabytes.
//
// Bare numbers are gigabytes. A trailing "g"/"gb" keeps the value, a trailing
// "m"/"mb" scales it by 2^-10. The keywords small, base, large, xl and xxl map
// to fixed budgets. Matching is case-insensitive and ignores surrounding space.
func ParseRAM(s string) (RAMBudget, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if gb, ok := sizeClasses[v]; ok {
		return gb, nil
	}
	v = strings.TrimRight(v, "b")
	if v == "" {
		return 0, fmt.Errorf("empty RAM size %q", s)
	}
	mult := 1.0
	switch v[len(v)-1] {
	case 'g':
		v = v[:len(v)-1]
	case 'm':
		mult = 1.0 / 1024
		v = v[:len(v)-1]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed RAM size %q", s)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("RAM size out of range: %q", s)
	}
	return RAMBudget(f * mult), nil
}

func (r RAMBudget) String() string { return strconv.FormatFloat(float64(r), 'g', -1, 64) + "gb" }

// Device selects where inference runs.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
)

// ParseDevice accepts "auto" or "cpu".
func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.TrimSpace(s)); d {
	case DeviceAuto, DeviceCPU:
		return d, nil
	default:
		return "", fmt.Errorf("device must be auto or cpu, got %q", s)
	}
}

// MaxTokens bounds the number of generated tokens per call.
type MaxTokens int

// ParseMaxTokens accepts a positive integer.
func ParseMaxTokens(s string) (MaxTokens, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("max_tokens must be an integer, got %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("max_tokens must be positive, got %d", n)
	}
	return MaxTokens(n), nil
}

// LicenseFilter restricts selectable models by license. The pattern is
// matched at the start of the license string.
type LicenseFilter struct {
	pattern string
	re      *regexp.Regexp
}

// ParseLicenseFilter compiles a license pattern such as "apache|mit|bsd".
func ParseLicenseFilter(s string) (LicenseFilter, error) {
	re, err := regexp.Compile(`^(?:` + s + `)`)
	if err != nil {
		return LicenseFilter{}, fmt.Errorf("invalid license pattern %q: %w", s, err)
	}
	return LicenseFilter{pattern: s, re: re}, nil
}

// Matches reports whether license is allowed. A zero filter allows everything.
func (f LicenseFilter) Matches(license string) bool {
	if f.re == nil {
		return true
	}
	return f.re.MatchString(license)
}

func (f LicenseFilter) String() string { return f.pattern }

// ModelName is the name of a model known to the catalog.
type ModelName string

var errUnknownModel = errors.New("unknown model")

func parseModelName(s string, known map[string]struct{}) (ModelName, error) {
	name := strings.TrimSpace(s)
	if _, ok := known[name]; !ok {
		return "", fmt.Errorf("%w %q", errUnknownModel, name)
	}
	return ModelName(name), nil
}
