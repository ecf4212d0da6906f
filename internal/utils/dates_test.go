package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "day first", input: "15-03-2025", want: time.Date(2025, 3, 15, 0, 0, 0, 0, IST)},
		{name: "iso", input: "2025-03-15", want: time.Date(2025, 3, 15, 0, 0, 0, 0, IST)},
		{name: "iso with padding", input: "  2025-03-15 ", want: time.Date(2025, 3, 15, 0, 0, 0, 0, IST)},
		{name: "slashes rejected", input: "15/03/2025", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "placeholder", input: "string", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "DD-MM-YYYY")
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	d := func(s string) time.Time {
		v, err := ParseDate(s)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, 1, DaysBetween(d("01-06-2025"), d("01-06-2025")))
	assert.Equal(t, 3, DaysBetween(d("01-06-2025"), d("03-06-2025")))
	assert.Equal(t, 31, DaysBetween(d("2025-05-01"), d("2025-05-31")))
}

func TestProvided(t *testing.T) {
	assert.False(t, Provided(nil))
	assert.False(t, Provided(StrPtr("")))
	assert.False(t, Provided(StrPtr("   ")))
	assert.False(t, Provided(StrPtr("string")))
	assert.False(t, Provided(StrPtr("String")))
	assert.True(t, Provided(StrPtr("TT002")))

	zero, five := 0, 5
	assert.False(t, ProvidedInt(nil))
	assert.False(t, ProvidedInt(&zero))
	assert.True(t, ProvidedInt(&five))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.00 KB", FormatFileSize(1024))
	assert.Equal(t, "2.50 MB", FormatFileSize(2621440))
}
