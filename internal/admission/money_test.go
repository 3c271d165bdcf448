package admission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyRounding(t *testing.T) {
	tests := []struct {
		in   float64
		want Money
	}{
		{2000, 200000},
		{2000.5, 200050},
		{0.125, 13},
		{1.005, 101},
		{2.675, 268},
		{-0.125, -13},
		{99.994, 9999},
		{0, 0},
	}
	for _, tt := range tests {
		got, err := MoneyFromFloat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{"2000", 200000},
		{" 2000.5 ", 200050},
		{"-3.456", -346},
		{"0.004999999", 0},
		{"0.005", 1},
		{"-0.005", -1},
		{"90071992547409.93", 9007199254740993},
		{"1e3", 100000},
	}
	for _, tt := range tests {
		got, err := ParseMoney(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}

	for _, bad := range []string{"", "abc", "1.2.3", "NaN", "99999999999999999999"} {
		_, err := ParseMoney(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "3000.00", Money(300000).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-12.30", Money(-1230).String())
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 2000.456, "b": "15.5", "c": ""}`), &v))
	assert.Equal(t, Money(200046), v.A)
	assert.Equal(t, Money(1550), v.B)
	assert.Equal(t, Money(0), v.C)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2000.46, "b": 15.5, "c": 0}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a": "abc"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}
