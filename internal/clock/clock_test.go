package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"06:00", 360, false},
		{"9:05", 545, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12:5", 0, true},
		{"1200", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToMinutes_PanicsOnMalformed(t *testing.T) {
	assert.Panics(t, func() { ToMinutes("25:00") })
	assert.Equal(t, 600, ToMinutes("10:00"))
}

func TestFromMinutes_WrapsAndPads(t *testing.T) {
	assert.Equal(t, "00:00", FromMinutes(0))
	assert.Equal(t, "09:05", FromMinutes(545))
	assert.Equal(t, "23:59", FromMinutes(1439))
	assert.Equal(t, "00:30", FromMinutes(1440+30))
	assert.Equal(t, "23:00", FromMinutes(-60))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 60, Duration("09:00", "10:00"))
	assert.Equal(t, 0, Duration("09:00", "09:00"))
	assert.Equal(t, -60, Duration("10:00", "09:00"))
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(" 7:30")
	require.NoError(t, err)
	assert.Equal(t, "07:30", got)

	_, err = Normalize("7")
	require.Error(t, err)
}

func TestDateKeyAndParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09", DateKey(d))

	assert.Equal(t, "2025-03-09", DateKey(time.Date(2025, 3, 9, 22, 15, 0, 0, time.Local)))

	_, err = ParseDate("09.03.2025")
	require.Error(t, err)
}

func TestOf(t *testing.T) {
	assert.Equal(t, 13*60+7, Of(time.Date(2025, 1, 1, 13, 7, 59, 0, time.Local)))
}
