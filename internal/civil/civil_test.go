package civil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2024-06-10", want: Date{2024, time.June, 10}},
		{in: "2024-06-10T00:00:00.000Z", want: Date{2024, time.June, 10}},
		{in: " 2024-02-29 ", want: Date{2024, time.February, 29}},
		{in: "2023-02-29", wantErr: true},
		{in: "10/06/2024", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, c := range cases {
		got, err := ParseDate(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "09:15:00", want: 555},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "9", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "09:00:45", wantErr: true},
		{in: "09:00:60", wantErr: true},
	}

	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(545).String())
	assert.Equal(t, "14:35", NewTimeOfDay(14, 35).String())
	assert.Equal(t, "00:15", TimeOfDay(15).String())
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	nine, nineFifteen, nineThirty, nineFortyFive := NewTimeOfDay(9, 0), NewTimeOfDay(9, 15), NewTimeOfDay(9, 30), NewTimeOfDay(9, 45)

	assert.True(t, Overlaps(nine, nineThirty, nineFifteen, nineFortyFive))
	assert.True(t, Overlaps(nineFifteen, nineFortyFive, nine, nineThirty))
	assert.True(t, Overlaps(nine, nineFortyFive, nineFifteen, nineThirty))
	assert.False(t, Overlaps(nine, nineThirty, nineThirty, nineFortyFive))
	assert.False(t, Overlaps(nineThirty, nineFortyFive, nine, nineThirty))
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"Monday":   time.Monday,
		"monday":   time.Monday,
		"Mon":      time.Monday,
		"SU":       time.Sunday,
		"0":        time.Sunday,
		"6":        time.Saturday,
		"thursday": time.Thursday,
	}
	for in, want := range cases {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWeekday("Funday")
	assert.Error(t, err)
	_, err = ParseWeekday("7")
	assert.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d := Date{2024, time.June, 3}

	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, Date{2024, time.June, 10}, d.AddDays(7))
	assert.Equal(t, Date{2024, time.July, 1}, d.AddDays(28))
	assert.Equal(t, 21, Date{2024, time.June, 24}.DaysSince(d))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))

	at := d.At(NewTimeOfDay(10, 30), time.UTC)
	assert.Equal(t, time.Date(2024, time.June, 3, 10, 30, 0, 0, time.UTC), at)
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Date  Date      `json:"slot_date"`
		Start TimeOfDay `json:"start_time"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"slot_date":"2024-06-10","start_time":"09:00:00"}`), &p))
	assert.Equal(t, Date{2024, time.June, 10}, p.Date)
	assert.Equal(t, NewTimeOfDay(9, 0), p.Start)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"slot_date":"2024-06-10","start_time":"09:00"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start_time":"25:00"}`), &p))
}
