package emitter

import (
	"math"
	"strconv"

	"github.com/go-faster/jx"

	"covidexport/pkg/domain"
)

// EncodeMetadata serializes the metadata of every entity as one JSON object
// keyed by code. Keys follow ds.Codes so the output is stable across runs.
func EncodeMetadata(ds *domain.Dataset) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		for _, code := range ds.Codes {
			meta := ds.Metadata[code]
			e.Field(code, func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("isoCode", func(e *jx.Encoder) { e.Str(meta.Code) })
					e.Field("location", func(e *jx.Encoder) { e.Str(meta.Name) })
					e.Field("continent", func(e *jx.Encoder) { e.Str(meta.Continent) })
					e.Field("population", func(e *jx.Encoder) { e.Int64(meta.Population) })
				})
			})
		}
	})

	return e.Bytes()
}

// EncodeSeries serializes an entity's daily records as a JSON array in the given order.
func EncodeSeries(records []domain.DailyRecord) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, r := range records {
			e.Obj(func(e *jx.Encoder) {
				e.Field("date", func(e *jx.Encoder) { e.Str(r.Date) })
				e.Field("new_cases", func(e *jx.Encoder) { e.Int64(r.NewCases) })
				e.Field("new_deaths", func(e *jx.Encoder) { e.Int64(r.NewDeaths) })
				e.Field("reproduction_rate", func(e *jx.Encoder) { encodeFloat(e, r.ReproductionRate) })
				e.Field("people_vaccinated", func(e *jx.Encoder) { e.Int64(r.PeopleVaccinated) })
				e.Field("people_fully_vaccinated", func(e *jx.Encoder) { e.Int64(r.PeopleFullyVaccinated) })
				e.Field("total_boosters", func(e *jx.Encoder) { e.Int64(r.TotalBoosters) })
			})
		}
	})

	return e.Bytes()
}

// maxPlainFloat is the magnitude from which integral floats are written with
// an exponent by the published artifacts.
const maxPlainFloat = 1e16

// encodeFloat writes f keeping a trailing ".0" on integral values, so that a
// rate of 0 reads 0.0 like in the published artifacts.
func encodeFloat(e *jx.Encoder, f float64) {
	if f == math.Trunc(f) && math.Abs(f) < maxPlainFloat {
		e.RawStr(strconv.FormatFloat(f, 'f', 1, 64))

		return
	}
	e.Float64(f)
}
