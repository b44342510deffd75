package schedule

import "testing"

func TestParseManualTime(t *testing.T) {
	str := func(s string) *string { return &s }
	cases := []struct {
		in   *string
		want int
	}{
		{nil, UnknownMinute},
		{str(""), UnknownMinute},
		{str("tba"), UnknownMinute},
		{str("9:00 PM"), 21 * 60},
		{str("9pm"), 21 * 60},
		{str("9:30pm"), 21*60 + 30},
		{str("21:30"), 21*60 + 30},
		{str("2130"), 21*60 + 30},
		{str("8 am"), 8 * 60},
		{str("12am"), 0},
		{str("12:15 AM"), 15},
		{str("12pm"), 12 * 60},
		{str("12:45 pm"), 12*60 + 45},
		{str("Fridays at 10PM"), 22 * 60},
		{str("25:00"), UnknownMinute},
		{str("10:75"), UnknownMinute},
	}
	for _, tc := range cases {
		name := "<nil>"
		if tc.in != nil {
			name = *tc.in
		}
		if got := ParseManualTime(tc.in); got != tc.want {
			t.Errorf("ParseManualTime(%q) = %d, want %d", name, got, tc.want)
		}
	}
}
