package normalizer_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"covidexport/internal/normalizer"
	"covidexport/pkg/domain"
	"covidexport/pkg/serrors"
)

const sampleDoc = `{
  "FRA": {
    "continent": "Europe",
    "location": "France",
    "population": 67422000.0,
    "life_expectancy": 82.66,
    "data": [
      {"date": "2021-01-01", "new_cases": 100.0, "new_deaths": 3.0, "reproduction_rate": 1.05, "stringency_index": 60.1},
      {"date": "2021-01-02", "new_cases": 120.0, "people_vaccinated": 5000.0, "people_fully_vaccinated": 10.0, "total_boosters": 1.0}
    ]
  },
  "OWID_EUR": {
    "location": "Europe",
    "population": 748962983.0,
    "data": [{"date": "2021-01-01", "new_cases": 999999.0}]
  },
  "OWID_WRL": {
    "location": "World",
    "population": 7874965730.0,
    "data": [
      {"date": "2021-01-01", "new_cases": 500000.0, "new_deaths": 9000.0},
      {"date": "2021-01-02", "new_cases": 510000.0}
    ]
  },
  "ABW": {
    "location": "Aruba",
    "population": "106537",
    "data": []
  }
}`

func TestNormalize_Sample(t *testing.T) {
	ds, err := normalizer.Normalize([]byte(sampleDoc))
	require.NoError(t, err)

	require.Equal(t, []string{"FRA", "WRL", "ABW"}, ds.Codes)
	require.Equal(t, domain.EntityMetadata{
		Code:       "FRA",
		Name:       "France",
		Continent:  "Europe",
		Population: 67422000,
	}, ds.Metadata["FRA"])
	require.Equal(t, []domain.DailyRecord{
		{Date: "2021-01-01", NewCases: 100, NewDeaths: 3, ReproductionRate: 1.05},
		{Date: "2021-01-02", NewCases: 120, PeopleVaccinated: 5000, PeopleFullyVaccinated: 10, TotalBoosters: 1},
	}, ds.Series["FRA"])

	require.Equal(t, int64(106537), ds.Metadata["ABW"].Population)
	require.NotNil(t, ds.Series["ABW"])
	require.Empty(t, ds.Series["ABW"])
}

func TestNormalize_WorldIsRenamed(t *testing.T) {
	doc := `{"OWID_WRL": {"location": "World", "population": 100, "data": [
		{"date": "2021-01-01", "new_cases": 7, "new_deaths": 1},
		{"date": "2021-01-02", "new_cases": 9}
	]}}`

	ds, err := normalizer.Normalize([]byte(doc))
	require.NoError(t, err)

	require.Equal(t, []string{domain.WorldCode}, ds.Codes)
	require.NotContains(t, ds.Metadata, normalizer.WorldSourceCode)
	require.Equal(t, "WRL", ds.Metadata["WRL"].Code)

	second := ds.Series["WRL"][1]
	require.Equal(t, int64(9), second.NewCases)
	require.Equal(t, int64(0), second.NewDeaths)
}

func TestNormalize_ExcludedAggregatesAreDropped(t *testing.T) {
	ds, err := normalizer.Normalize([]byte(`{
		"OWID_EUR": {"location": "Europe", "population": 1, "data": []},
		"FRA": {"location": "France", "population": 2, "data": []}
	}`))
	require.NoError(t, err)

	require.Equal(t, []string{"FRA"}, ds.Codes)
	require.NotContains(t, ds.Metadata, "OWID_EUR")
	require.NotContains(t, ds.Series, "OWID_EUR")
	require.NotContains(t, ds.Metadata, "EUR")
}

func TestNormalize_ExcludedBodiesAreNotValidated(t *testing.T) {
	// aggregates are skipped wholesale, even when they would not normalize
	ds, err := normalizer.Normalize([]byte(`{"OWID_INT": {"data": "nope"}, "DEU": {"location": "Germany", "population": 3, "data": []}}`))
	require.NoError(t, err)
	require.Equal(t, []string{"DEU"}, ds.Codes)
}

func TestNormalize_AllExcludedCodes(t *testing.T) {
	codes := []string{
		"OWID_AFR", "OWID_ASI", "OWID_EUR", "OWID_EUN", "OWID_HIC", "OWID_INT", "OWID_KOS",
		"OWID_LIC", "OWID_LMC", "OWID_NAM", "OWID_CYN", "OWID_OCE", "OWID_SAM", "OWID_UMC",
	}
	for _, code := range codes {
		require.True(t, normalizer.IsExcluded(code), code)
	}
	require.False(t, normalizer.IsExcluded(normalizer.WorldSourceCode))
	require.False(t, normalizer.IsExcluded("FRA"))
}

func TestNormalize_MissingContinentDefaultsToOther(t *testing.T) {
	ds, err := normalizer.Normalize([]byte(`{
		"XKX": {"location": "Somewhere", "population": 10, "data": []},
		"YYY": {"location": "Elsewhere", "continent": null, "population": 10, "data": []}
	}`))
	require.NoError(t, err)
	require.Equal(t, domain.DefaultContinent, ds.Metadata["XKX"].Continent)
	require.Equal(t, "Other", ds.Metadata["YYY"].Continent)
}

func TestNormalize_DefaultsAreIndependentPerField(t *testing.T) {
	fields := map[string]func(r domain.DailyRecord) float64{
		"new_cases":               func(r domain.DailyRecord) float64 { return float64(r.NewCases) },
		"new_deaths":              func(r domain.DailyRecord) float64 { return float64(r.NewDeaths) },
		"reproduction_rate":       func(r domain.DailyRecord) float64 { return r.ReproductionRate },
		"people_vaccinated":       func(r domain.DailyRecord) float64 { return float64(r.PeopleVaccinated) },
		"people_fully_vaccinated": func(r domain.DailyRecord) float64 { return float64(r.PeopleFullyVaccinated) },
		"total_boosters":          func(r domain.DailyRecord) float64 { return float64(r.TotalBoosters) },
	}

	for missing := range fields {
		t.Run(missing, func(t *testing.T) {
			var parts []string
			for name := range fields {
				if name != missing {
					parts = append(parts, `"`+name+`": 7`)
				}
			}
			doc := `{"FRA": {"location": "France", "population": 1, "data": [{"date": "2021-01-01", ` +
				strings.Join(parts, ", ") + `}]}}`

			ds, err := normalizer.Normalize([]byte(doc))
			require.NoError(t, err)

			rec := ds.Series["FRA"][0]
			for name, get := range fields {
				if name == missing {
					require.Zero(t, get(rec), name)
				} else {
					require.Equal(t, 7.0, get(rec), name)
				}
			}
		})
	}
}

func TestNormalize_NullDailyValueTakesDefault(t *testing.T) {
	ds, err := normalizer.Normalize([]byte(`{"FRA": {"location": "France", "population": 1, "data": [
		{"date": "2021-01-01", "new_cases": null, "new_deaths": 4, "reproduction_rate": null}
	]}}`))
	require.NoError(t, err)
	require.Equal(t, domain.DailyRecord{Date: "2021-01-01", NewDeaths: 4}, ds.Series["FRA"][0])
}

func TestNormalize_Coercion(t *testing.T) {
	ds, err := normalizer.Normalize([]byte(`{"FRA": {"location": "France", "population": "1.9e3", "data": [
		{"date": "2021-01-01", "new_cases": -12.7, "new_deaths": "3", "reproduction_rate": "0.98", "total_boosters": 1e2}
	]}}`))
	require.NoError(t, err)

	require.Equal(t, int64(1900), ds.Metadata["FRA"].Population)
	rec := ds.Series["FRA"][0]
	require.Equal(t, int64(-12), rec.NewCases)
	require.Equal(t, int64(3), rec.NewDeaths)
	require.InDelta(t, 0.98, rec.ReproductionRate, 1e-12)
	require.Equal(t, int64(100), rec.TotalBoosters)
}

func TestNormalize_OrderIsPreserved(t *testing.T) {
	// dates are deliberately out of order and duplicated
	ds, err := normalizer.Normalize([]byte(`{"FRA": {"location": "France", "population": 1, "data": [
		{"date": "2021-01-03", "new_cases": 3},
		{"date": "2021-01-01", "new_cases": 1},
		{"date": "2021-01-01", "new_cases": 2}
	]}}`))
	require.NoError(t, err)

	var got []string
	for _, rec := range ds.Series["FRA"] {
		got = append(got, rec.Date)
	}
	require.Equal(t, []string{"2021-01-03", "2021-01-01", "2021-01-01"}, got)
	require.Equal(t, int64(2), ds.Series["FRA"][2].NewCases)
}

func TestNormalize_KeySetsMatchAndCodesAreKnown(t *testing.T) {
	ds, err := normalizer.Normalize([]byte(sampleDoc))
	require.NoError(t, err)

	require.Len(t, ds.Metadata, ds.Len())
	require.Len(t, ds.Series, ds.Len())
	for _, code := range ds.Codes {
		require.Contains(t, ds.Metadata, code)
		require.Contains(t, ds.Series, code)
		require.False(t, normalizer.IsExcluded(code))
		require.True(t, code == domain.WorldCode || strings.Contains(sampleDoc, `"`+code+`"`))
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first, err := normalizer.Normalize([]byte(sampleDoc))
	require.NoError(t, err)
	second, err := normalizer.Normalize([]byte(sampleDoc))
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestDecode_MatchesNormalize(t *testing.T) {
	want, err := normalizer.Normalize([]byte(sampleDoc))
	require.NoError(t, err)

	got, err := normalizer.Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	require.Equal(t, want, got)
}

func TestNormalize_MalformedInput(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{name: "not an object", doc: `[1, 2]`},
		{name: "invalid json", doc: `{"FRA": `},
		{name: "trailing data", doc: `{} {}`},
		{name: "entity not an object", doc: `{"FRA": 3}`},
		{name: "missing location", doc: `{"FRA": {"population": 1, "data": []}}`},
		{name: "missing population", doc: `{"FRA": {"location": "France", "data": []}}`},
		{name: "missing data", doc: `{"FRA": {"location": "France", "population": 1}}`},
		{name: "location wrong type", doc: `{"FRA": {"location": 1, "population": 1, "data": []}}`},
		{name: "null population", doc: `{"FRA": {"location": "France", "population": null, "data": []}}`},
		{name: "negative population", doc: `{"FRA": {"location": "France", "population": -1, "data": []}}`},
		{name: "non numeric population", doc: `{"FRA": {"location": "France", "population": "many", "data": []}}`},
		{name: "data not an array", doc: `{"FRA": {"location": "France", "population": 1, "data": {}}}`},
		{name: "record not an object", doc: `{"FRA": {"location": "France", "population": 1, "data": [1]}}`},
		{name: "record missing date", doc: `{"FRA": {"location": "France", "population": 1, "data": [{"new_cases": 1}]}}`},
		{
			name: "non numeric daily value",
			doc:  `{"FRA": {"location": "France", "population": 1, "data": [{"date": "d", "new_cases": "x"}]}}`,
		},
		{
			name: "bool daily value",
			doc:  `{"FRA": {"location": "France", "population": 1, "data": [{"date": "d", "new_deaths": true}]}}`,
		},
		{
			name: "code of the metadata artifact",
			doc: `{"countries": {"location": "C", "population": 1, "data": [{"date": "d"}]},
				"FRA": {"location": "France", "population": 1, "data": []}}`,
		},
		{
			name: "duplicate output code",
			doc: `{"WRL": {"location": "W", "population": 1, "data": []},
				"OWID_WRL": {"location": "World", "population": 1, "data": []}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := normalizer.Normalize([]byte(tc.doc))
			require.Error(t, err)
			require.Nil(t, ds)
			require.ErrorIs(t, err, serrors.ErrMalformedInput)
		})
	}
}

func TestNormalize_ErrorNamesEntityAndRecord(t *testing.T) {
	_, err := normalizer.Normalize([]byte(`{"FRA": {"location": "France", "population": 1, "data": [
		{"date": "2021-01-01"},
		{"date": "2021-01-02", "new_deaths": "lots"}
	]}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `entity "FRA"`)
	require.Contains(t, err.Error(), "record 1")
	require.Contains(t, err.Error(), "new_deaths")
	require.Contains(t, err.Error(), `entity "FRA": data: record 1: new_deaths`)
	require.NotContains(t, err.Error(), "callback")
}

// failingReader serves part of a document and then fails.
type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}

	return n, err
}

func TestDecode_ReadFailureIsNotMalformed(t *testing.T) {
	readErr := errors.New("connection reset")
	r := &failingReader{r: strings.NewReader(sampleDoc[:len(sampleDoc)/2]), err: readErr}

	ds, err := normalizer.Decode(r)
	require.Nil(t, ds)
	require.ErrorIs(t, err, readErr)
	require.NotErrorIs(t, err, serrors.ErrMalformedInput)
}

func TestDecode_TruncatedDocumentIsMalformed(t *testing.T) {
	ds, err := normalizer.Decode(strings.NewReader(sampleDoc[:len(sampleDoc)/2]))
	require.Nil(t, ds)
	require.ErrorIs(t, err, serrors.ErrMalformedInput)
}
