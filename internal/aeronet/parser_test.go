package aeronet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

const aodFixture = `AERONET Version 3;
Monthly Averages
Dushanbe,lev20
Version 3: AOD Level 2.0
The following data are automatically cloud cleared and quality assured
Contact: PI=someone; PI Email=someone@example.org
Month,AOD_1640nm,AOD_1020nm,AOD_870nm,AOD_500nm,NUM_DAYS[AOD_500nm],440-870_Angstrom_Exponent
2011-JAN,-999.000000,0.051000,0.060000,0.120000,14,1.100000
2011-FEB,-999.000000,0.055000,0.064000,-999.000000,-999.000000,1.050000
2011-MAR,-999.000000,0.081000,0.095000,0.310000,21,0.800000
CLIMATOLOGY,-999.000000,-999.000000,-999.000000,-999.000000,-999.000000,-999.000000
`

const sdaFixture = `AERONET Version 3;
Monthly Averages
Dushanbe,lev20
Version 3: SDA Level 2.0
O'Neill fine/coarse mode retrieval
Contact: PI=someone; PI Email=someone@example.org
Month,Total_AOD_500nm[tau_a],Fine_Mode_AOD_500nm[tau_f],Coarse_Mode_AOD_500nm[tau_c],FineModeFraction_500nm[eta]
2011-JAN,0.118000,0.090000,0.028000,0.762700
2011-MAR,0.305000,0.100000,0.205000,0.327900
2011-APR,0.410000,0.150000,0.260000,0.365900
`

func TestParseAOD(t *testing.T) {
	rows, err := ParseAOD(strings.NewReader(aodFixture), "aod.lev20")
	require.NoError(t, err)
	require.Len(t, rows, 3) // CLIMATOLOGY row dropped

	assert.Equal(t, domain.MonthKey{Year: 2011, Month: time.January}, rows[0].Key)
	require.NotNil(t, rows[0].TotalAOD)
	assert.InDelta(t, 0.12, *rows[0].TotalAOD, 1e-9)
	require.NotNil(t, rows[0].ObsDays)
	assert.Equal(t, 14, *rows[0].ObsDays)

	// Sentinel values map to missing, never to zero.
	assert.Nil(t, rows[1].TotalAOD)
	assert.Nil(t, rows[1].ObsDays)
}

func TestParseSDA(t *testing.T) {
	rows, err := ParseSDA(strings.NewReader(sdaFixture), "sda.ONEILL_lev20")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.MonthKey{Year: 2011, Month: time.January}, rows[0].Key)
	require.NotNil(t, rows[0].FineAOD)
	assert.InDelta(t, 0.09, *rows[0].FineAOD, 1e-9)
	require.NotNil(t, rows[0].CoarseAOD)
	assert.InDelta(t, 0.028, *rows[0].CoarseAOD, 1e-9)
}

func TestReadTable_Errors(t *testing.T) {
	t.Run("no header row", func(t *testing.T) {
		_, err := ParseAOD(strings.NewReader("metadata only\nno data here\n"), "broken.lev20")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "header row")
	})

	t.Run("header without data rows", func(t *testing.T) {
		_, err := ParseAOD(strings.NewReader("preamble\nMonth,AOD_500nm\n"), "empty.lev20")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})
}

func TestMerge(t *testing.T) {
	aod, err := ParseAOD(strings.NewReader(aodFixture), "aod.lev20")
	require.NoError(t, err)
	sda, err := ParseSDA(strings.NewReader(sdaFixture), "sda.ONEILL_lev20")
	require.NoError(t, err)

	merged := Merge(aod, sda)

	// Inner join: FEB has no SDA row, APR has no AOD row.
	require.Len(t, merged, 2)
	assert.Equal(t, domain.MonthKey{Year: 2011, Month: time.January}, merged[0].Key)
	assert.Equal(t, domain.MonthKey{Year: 2011, Month: time.March}, merged[1].Key)

	jan := merged[0]
	require.NotNil(t, jan.FineFraction)
	assert.InDelta(t, 0.09/0.12, *jan.FineFraction, 1e-9)
	assert.GreaterOrEqual(t, *jan.FineFraction, 0.0)
	assert.LessOrEqual(t, *jan.FineFraction, 1.0)
}

func TestMerge_FineFractionRules(t *testing.T) {
	key := domain.MonthKey{Year: 2011, Month: time.May}

	t.Run("total absent means fraction missing, not tau_f/(tau_f+tau_c)", func(t *testing.T) {
		merged := Merge(
			[]AODRow{{Key: key}}, // τ_total missing
			[]SDARow{{Key: key, FineAOD: domain.Float(0.10), CoarseAOD: domain.Float(0.20)}},
		)
		require.Len(t, merged, 1)
		assert.Nil(t, merged[0].FineFraction)
	})

	t.Run("zero total means fraction missing, not infinity", func(t *testing.T) {
		merged := Merge(
			[]AODRow{{Key: key, TotalAOD: domain.Float(0)}},
			[]SDARow{{Key: key, FineAOD: domain.Float(0.10)}},
		)
		require.Len(t, merged, 1)
		assert.Nil(t, merged[0].FineFraction)
	})

	t.Run("fine absent means fraction missing", func(t *testing.T) {
		merged := Merge(
			[]AODRow{{Key: key, TotalAOD: domain.Float(0.30)}},
			[]SDARow{{Key: key, CoarseAOD: domain.Float(0.20)}},
		)
		require.Len(t, merged, 1)
		assert.Nil(t, merged[0].FineFraction)
	})
}

func TestMerge_SortsAscending(t *testing.T) {
	keys := []domain.MonthKey{
		{Year: 2012, Month: time.February},
		{Year: 2011, Month: time.December},
		{Year: 2012, Month: time.January},
	}
	var aod []AODRow
	var sda []SDARow
	for _, k := range keys {
		aod = append(aod, AODRow{Key: k, TotalAOD: domain.Float(0.1)})
		sda = append(sda, SDARow{Key: k, FineAOD: domain.Float(0.05)})
	}

	merged := Merge(aod, sda)
	require.Len(t, merged, 3)
	assert.Equal(t, domain.MonthKey{Year: 2011, Month: time.December}, merged[0].Key)
	assert.Equal(t, domain.MonthKey{Year: 2012, Month: time.January}, merged[1].Key)
	assert.Equal(t, domain.MonthKey{Year: 2012, Month: time.February}, merged[2].Key)
}

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
		want   domain.MonthKey
	}{
		{"2011-JAN", true, domain.MonthKey{Year: 2011, Month: time.January}},
		{"1993-DEC", true, domain.MonthKey{Year: 1993, Month: time.December}},
		{"CLIMATOLOGY", false, domain.MonthKey{}},
		{"2011-13", false, domain.MonthKey{}},
		{"", false, domain.MonthKey{}},
	}

	for _, tc := range tests {
		key, ok := parseMonthKey(tc.input)
		assert.Equal(t, tc.wantOK, ok, "input %q", tc.input)
		if tc.wantOK {
			assert.Equal(t, tc.want, key, "input %q", tc.input)
		}
	}
}
