package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *float64
		ok    bool
	}{
		{"plain value", "50", f64(50), true},
		{"decimal", "49.3", f64(49.3), true},
		{"blank", "", nil, true},
		{"whitespace", "   ", nil, true},
		{"sentinel", "-999999", nil, true},
		{"sentinel with decimals", "-999999.0", nil, true},
		{"negative non-sentinel", "-3", f64(-3), true},
		{"garbage", "abc", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float(tt.input)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatSentinelNeverZero(t *testing.T) {
	got, err := Float("-999999")
	require.NoError(t, err)
	require.Nil(t, got, "sentinel must normalize to nil, not a number")
}

func TestString(t *testing.T) {
	assert.Nil(t, String(""))
	assert.Nil(t, String("   "))
	assert.Nil(t, String("Not Available"))
	assert.Equal(t, "Pittsburgh", *String(" Pittsburgh "))
}

func TestGeoPoint(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		lon, lat, err := GeoPoint("POINT (-79.9959 40.4406)")
		require.NoError(t, err)
		require.NotNil(t, lon)
		require.NotNil(t, lat)
		assert.Equal(t, -79.9959, *lon)
		assert.Equal(t, 40.4406, *lat)
	})

	t.Run("blank is null", func(t *testing.T) {
		lon, lat, err := GeoPoint("")
		require.NoError(t, err)
		assert.Nil(t, lon)
		assert.Nil(t, lat)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, s := range []string{
			"POINT(-79.9 40.4)",
			"POINT (-79.9)",
			"POINT (-79.9 40.4",
			"POINT (abc def)",
			"-79.9 40.4",
		} {
			_, _, err := GeoPoint(s)
			assert.Error(t, err, "input %q", s)
		}
	})
}

func TestYesNo(t *testing.T) {
	assert.True(t, YesNo("yes"))
	assert.True(t, YesNo("Yes"))
	assert.True(t, YesNo(" YES "))
	assert.False(t, YesNo("no"))
	assert.False(t, YesNo(""))
	assert.False(t, YesNo("true"))
}

func TestRating(t *testing.T) {
	tests := []struct {
		input string
		want  *int32
	}{
		{"3", i32(3)},
		{"1", i32(1)},
		{"5", i32(5)},
		{"0", nil},
		{"6", nil},
		{"abc", nil},
		{"Not Available", nil},
		{"", nil},
		{"-3", nil},
		{"3.0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Rating(tt.input))
		})
	}
}

func TestDate(t *testing.T) {
	got, err := Date("2022-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = Date("2022-13-40")
	require.Error(t, err)

	_, err = Date("03/01/2022")
	require.Error(t, err)
}

func f64(f float64) *float64 { return &f }
func i32(n int32) *int32     { return &n }
