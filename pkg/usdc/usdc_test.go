package usdc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBaseUnits(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1000000", want: "1"},
		{in: "1", want: "0.000001"},
		{in: "0", want: "0"},
		{in: "2500000", want: "2.5"},
		{in: "9007199254740993000", want: "9007199254740.993"},
		{in: "1.5", wantErr: true},
		{in: "-1000000", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := FromBaseUnits(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1", want: "1000000"},
		{in: "0.000001", want: "1"},
		{in: "2.5", want: "2500000"},
		{in: "9007199254740.993", want: "9007199254740993000"},
		{in: "0.0000001", wantErr: true},
		{in: "-1", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tc.in))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, base := range []string{"1", "1000000", "123456789", "9007199254740993000"} {
		amount, err := FromBaseUnits(base)
		require.NoError(t, err)
		back, err := ToBaseUnits(amount)
		require.NoError(t, err)
		assert.Equal(t, base, back)
	}
}

func TestFormatBaseUnits(t *testing.T) {
	assert.Equal(t, "$1.00", FormatBaseUnits("1000000"))
	assert.Equal(t, "$0.25", FormatBaseUnits("250000"))
	assert.Equal(t, "$2.50", FormatBaseUnits("2500000"))
	assert.Equal(t, "$?", FormatBaseUnits("garbage"))
}
