package normalizer

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"covidexport/pkg/domain"
)

// recordField knows how to decode one optional daily value and which default
// it takes when the value is absent.
type recordField struct {
	decode     func(d *jx.Decoder, r *domain.DailyRecord) error
	setDefault func(r *domain.DailyRecord)
}

// recordFields is the per-field default table for daily records. Defaults are
// applied field by field so a record missing one value keeps all the others.
var recordFields = map[string]recordField{ //nolint: gochecknoglobals
	"new_cases":               intField(func(r *domain.DailyRecord) *int64 { return &r.NewCases }, 0),
	"new_deaths":              intField(func(r *domain.DailyRecord) *int64 { return &r.NewDeaths }, 0),
	"reproduction_rate":       floatField(func(r *domain.DailyRecord) *float64 { return &r.ReproductionRate }, 0.0),
	"people_vaccinated":       intField(func(r *domain.DailyRecord) *int64 { return &r.PeopleVaccinated }, 0),
	"people_fully_vaccinated": intField(func(r *domain.DailyRecord) *int64 { return &r.PeopleFullyVaccinated }, 0),
	"total_boosters":          intField(func(r *domain.DailyRecord) *int64 { return &r.TotalBoosters }, 0),
}

// newRecord returns a record with every optional field set to its default.
func newRecord() domain.DailyRecord {
	var rec domain.DailyRecord
	for _, f := range recordFields {
		f.setDefault(&rec)
	}

	return rec
}

func intField(ptr func(r *domain.DailyRecord) *int64, def int64) recordField {
	return recordField{
		decode: func(d *jx.Decoder, r *domain.DailyRecord) error {
			v, err := decodeInt(d)
			if err != nil {
				return err
			}
			*ptr(r) = v

			return nil
		},
		setDefault: func(r *domain.DailyRecord) { *ptr(r) = def },
	}
}

func floatField(ptr func(r *domain.DailyRecord) *float64, def float64) recordField {
	return recordField{
		decode: func(d *jx.Decoder, r *domain.DailyRecord) error {
			v, err := decodeFloat(d)
			if err != nil {
				return err
			}
			*ptr(r) = v

			return nil
		},
		setDefault: func(r *domain.DailyRecord) { *ptr(r) = def },
	}
}

func decodeString(d *jx.Decoder) (string, error) {
	if tt := d.Next(); tt != jx.String {
		return "", errors.Errorf("expected string, got %s", tt)
	}

	return d.Str()
}

// decodeFloat accepts a JSON number or a string holding a number.
func decodeFloat(d *jx.Decoder) (float64, error) {
	switch tt := d.Next(); tt {
	case jx.Number, jx.String:
		n, err := d.Num()
		if err != nil {
			return 0, errors.Wrap(err, "not a number")
		}
		f, err := n.Float64()
		if err != nil {
			return 0, errors.Wrapf(err, "not a number %q", n.String())
		}

		return f, nil
	default:
		return 0, errors.Errorf("expected number, got %s", tt)
	}
}

// decodeInt coerces a number to an integer by truncating toward zero, so both
// 12 and 12.0 (and "12") become 12.
func decodeInt(d *jx.Decoder) (int64, error) {
	f, err := decodeFloat(d)
	if err != nil {
		return 0, err
	}

	t := math.Trunc(f)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0, errors.Errorf("value %g out of integer range", f)
	}

	return int64(t), nil
}
