package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKeyString(t *testing.T) {
	assert.Equal(t, "Jan2014", MonthKey{Year: 2014, Month: time.January}.String())
	assert.Equal(t, "Nov2024", MonthKey{Year: 2024, Month: time.November}.String())
	assert.Equal(t, "Sep0999", MonthKey{Year: 999, Month: time.September}.String())
}

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MonthKey
		wantErr bool
	}{
		{name: "january", input: "Jan2014", want: MonthKey{Year: 2014, Month: time.January}},
		{name: "december", input: "Dec2023", want: MonthKey{Year: 2023, Month: time.December}},
		{name: "lowercase month", input: "jan2014", wantErr: true},
		{name: "full month name", input: "January2014", wantErr: true},
		{name: "short year", input: "Jan14", wantErr: true},
		{name: "non numeric year", input: "Jan20x4", wantErr: true},
		{name: "unknown month", input: "Foo2014", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "property name", input: "Current", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestParseYearMonth(t *testing.T) {
	k, err := ParseYearMonth("2014-01")
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowStart, k)

	_, err = ParseYearMonth("2014/01")
	assert.Error(t, err)
}

func TestMonthKeyOrdering(t *testing.T) {
	dec := MonthKey{Year: 2014, Month: time.December}
	jan := MonthKey{Year: 2015, Month: time.January}

	assert.True(t, dec.Before(jan))
	assert.False(t, jan.Before(dec))
	assert.False(t, jan.Before(jan))
	assert.Equal(t, jan, dec.Next())
	assert.True(t, MonthKey{}.IsZero())
	assert.False(t, jan.IsZero())
}

func TestMonthOf(t *testing.T) {
	ts := time.Date(2016, time.February, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, MonthKey{Year: 2016, Month: time.February}, MonthOf(ts))
}

func TestMonthRange(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		months := DefaultMonths()
		require.Len(t, months, 131)
		assert.Equal(t, "Jan2014", months[0].String())
		assert.Equal(t, "Nov2024", months[len(months)-1].String())
		for i := 1; i < len(months); i++ {
			assert.True(t, months[i-1].Before(months[i]))
		}
	})

	t.Run("single month", func(t *testing.T) {
		k := MonthKey{Year: 2020, Month: time.May}
		assert.Equal(t, []MonthKey{k}, MonthRange(k, k))
	})

	t.Run("reversed bounds", func(t *testing.T) {
		assert.Nil(t, MonthRange(DefaultWindowEnd, DefaultWindowStart))
	})
}

func TestMonthSet(t *testing.T) {
	months := MonthRange(MonthKey{Year: 2014, Month: time.January}, MonthKey{Year: 2014, Month: time.March})
	set := NewMonthSet(months)

	assert.True(t, set.Contains(MonthKey{Year: 2014, Month: time.February}))
	assert.False(t, set.Contains(MonthKey{Year: 2014, Month: time.April}))
	assert.Equal(t, 2, set[MonthKey{Year: 2014, Month: time.March}])
}
