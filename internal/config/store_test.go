package config

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseRAM(t *testing.T) {
	cases := []struct {
		in   string
		want RAMBudget
	}{
		{"512", 512},
		{".5", 0.5},
		{"4G", 4},
		{"4gb", 4},
		{"256mb", 0.25},
		{"256M", 0.25},
		{"512mb", 0.5},
		{"small", 0.2},
		{" Base ", 0.48},
		{"LARGE", 1.0},
		{"xl", 4.0},
		{"xxl", 16.0},
	}
	for _, c := range cases {
		got, err := ParseRAM(c.in)
		require.NoError(t, err, c.in)
		assert.InDelta(t, float64(c.want), float64(got), 1e-12, c.in)
	}
}

func TestParseRAM_Rejects(t *testing.T) {
	for _, in := range []string{"", "gb", "lots", "-1", "1tb", "NaN"} {
		_, err := ParseRAM(in)
		assert.Error(t, err, in)
	}
}

func TestParseRAM_Idempotent(t *testing.T) {
	for _, in := range []string{"0.48", "3", "12.75", ".125"} {
		first, err := ParseRAM(in)
		require.NoError(t, err)
		again, err := ParseRAM(strconv.FormatFloat(float64(first), 'g', -1, 64) + "gb")
		require.NoError(t, err)
		assert.Equal(t, first, again)
		viaString, err := ParseRAM(first.String())
		require.NoError(t, err)
		assert.Equal(t, first, viaString)
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Options{KnownModels: []string{"lamini-flan-t5-248m"}, Getenv: envMap(nil)})
	require.NoError(t, err)
	c := s.Snapshot()
	assert.Equal(t, ModelName("lamini-flan-t5-248m"), c.Name)
	assert.Equal(t, MaxTokens(200), c.MaxTokens)
	assert.Equal(t, DeviceCPU, c.Device)
	assert.InDelta(t, 0.48, float64(c.MaxRAM), 1e-12)
	assert.Equal(t, ".*", c.ModelLicense.String())
	assert.True(t, c.ModelLicense.Matches("anything"))
}

func TestNew_Precedence(t *testing.T) {
	env := envMap(map[string]string{
		"LMAPI_MAX_RAM":    "2gb",
		"LMAPI_MAX_TOKENS": "50",
	})
	s, err := New(Options{
		KnownModels: []string{"m1", "m2"},
		Getenv:      env,
		Overrides:   map[string]string{KeyMaxRAM: "512mb", KeyName: "m2"},
	})
	require.NoError(t, err)
	c := s.Snapshot()
	// explicit override beats environment
	assert.InDelta(t, 0.5, float64(c.MaxRAM), 1e-12)
	// environment beats default
	assert.Equal(t, MaxTokens(50), c.MaxTokens)
	assert.Equal(t, ModelName("m2"), c.Name)
}

func TestNew_ColabDefaultsToAuto(t *testing.T) {
	s, err := New(Options{Getenv: envMap(map[string]string{"COLAB_GPU": "1"})})
	require.NoError(t, err)
	assert.Equal(t, DeviceAuto, s.Snapshot().Device)
}

func TestNew_AggregatesErrors(t *testing.T) {
	_, err := New(Options{
		KnownModels: []string{"m1"},
		Getenv:      envMap(map[string]string{"LMAPI_DEVICE": "gpu"}),
		Overrides:   map[string]string{KeyName: "flan-t5-bad", "bad_value": "1"},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.True(t, IsKeyError(err))
	assert.Contains(t, err.Error(), "flan-t5-bad")
	assert.Contains(t, err.Error(), "gpu")
}

func TestStore_GetSet(t *testing.T) {
	s, err := New(Options{KnownModels: []string{"m1"}, Getenv: envMap(nil)})
	require.NoError(t, err)

	v, err := s.Set(KeyMaxRAM, "4gb")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	v, err = s.Set(KeyModelLicense, "apache|mit|bsd")
	require.NoError(t, err)
	assert.Equal(t, "apache|mit|bsd", v)
	assert.True(t, s.Snapshot().ModelLicense.Matches("mit"))
	assert.False(t, s.Snapshot().ModelLicense.Matches("cc-by-nc"))

	_, err = s.Set(KeyName, "flan-t5-bad")
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, KeyName, ve.Key)
	// rejected values leave the previous one in place
	got, err := s.Get(KeyName)
	require.NoError(t, err)
	assert.Equal(t, "m1", got)

	_, err = s.Get("bad_value")
	assert.True(t, IsKeyError(err))
	_, err = s.Set("bad_value", "1")
	assert.True(t, IsKeyError(err))
}

func TestStore_SetMaxRAM(t *testing.T) {
	s, err := New(Options{Getenv: envMap(nil)})
	require.NoError(t, err)
	gb, err := s.SetMaxRAM("16")
	require.NoError(t, err)
	assert.Equal(t, RAMBudget(16), gb)
	gb, err = s.SetMaxRAM("512mb")
	require.NoError(t, err)
	assert.Equal(t, RAMBudget(0.5), gb)
	_, err = s.SetMaxRAM("plenty")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, RAMBudget(0.5), s.Snapshot().MaxRAM)
}

func TestStore_Values(t *testing.T) {
	s, err := New(Options{KnownModels: []string{"m1"}, Getenv: envMap(nil)})
	require.NoError(t, err)
	vals := s.Values()
	assert.Len(t, vals, len(Keys()))
	assert.Equal(t, 200, vals[KeyMaxTokens])
	assert.Equal(t, "cpu", vals[KeyDevice])
}

func TestParseDeviceAndMaxTokens(t *testing.T) {
	_, err := ParseDevice("cuda")
	assert.Error(t, err)
	d, err := ParseDevice("auto")
	require.NoError(t, err)
	assert.Equal(t, DeviceAuto, d)

	_, err = ParseMaxTokens("0")
	assert.Error(t, err)
	_, err = ParseMaxTokens("ten")
	assert.Error(t, err)
	n, err := ParseMaxTokens(" 128 ")
	require.NoError(t, err)
	assert.Equal(t, MaxTokens(128), n)
}

func TestNew_Chooser(t *testing.T) {
	pick := func(c Config) string {
		if c.MaxRAM >= 1 {
			return "big"
		}
		return "small"
	}
	s, err := New(Options{
		KnownModels: []string{"small", "big"},
		Getenv:      envMap(map[string]string{"LMAPI_MAX_RAM": "large"}),
		Chooser:     pick,
	})
	require.NoError(t, err)
	assert.Equal(t, ModelName("big"), s.Snapshot().Name)

	// an explicit name is never replaced
	s, err = New(Options{
		KnownModels: []string{"small", "big"},
		Getenv:      envMap(map[string]string{"LMAPI_MAX_RAM": "large"}),
		Overrides:   map[string]string{KeyName: "small"},
		Chooser:     pick,
	})
	require.NoError(t, err)
	assert.Equal(t, ModelName("small"), s.Snapshot().Name)
}
