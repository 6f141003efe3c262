// Package normalizer turns the raw per-country statistics document into the flat
// per-entity Dataset consumed by the emitter.
package normalizer

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"covidexport/pkg/domain"
	"covidexport/pkg/serrors"
)

// WorldSourceCode is the source code of the whole-world aggregate. It is kept
// and exported under domain.WorldCode.
const WorldSourceCode = "OWID_WRL"

// readBufSize is the buffer used when decoding from a reader.
const readBufSize = 64 * 1024

// excludedCodes are the aggregate pseudo-entities (continents, income groups,
// international and regional groupings) that share the key space of countries
// in the source document but are not exported.
var excludedCodes = map[string]struct{}{ //nolint: gochecknoglobals
	"OWID_AFR": {}, // Africa
	"OWID_ASI": {}, // Asia
	"OWID_EUR": {}, // Europe
	"OWID_EUN": {}, // European Union
	"OWID_HIC": {}, // High income
	"OWID_INT": {}, // International
	"OWID_KOS": {}, // Kosovo
	"OWID_LIC": {}, // Low income
	"OWID_LMC": {}, // Lower middle income
	"OWID_NAM": {}, // North America
	"OWID_CYN": {}, // Northern Cyprus
	"OWID_OCE": {}, // Oceania
	"OWID_SAM": {}, // South America
	"OWID_UMC": {}, // Upper middle income
}

// IsExcluded reports whether the source code is an aggregate that must be dropped.
func IsExcluded(code string) bool {
	_, ok := excludedCodes[code]

	return ok
}

// OutputCode maps a retained source code to the code used in the exported
// artifacts. Only the world aggregate is renamed.
func OutputCode(code string) string {
	if code == WorldSourceCode {
		return domain.WorldCode
	}

	return code
}

// Normalize converts an in-memory source document into a Dataset.
//
// The rules are:
//   - the document must be a JSON object keyed by entity code
//   - excluded aggregate codes are skipped without decoding their bodies
//   - OWID_WRL is exported as WRL
//   - every retained entity must carry location, population and data; each
//     daily entry must carry a date
//   - a missing continent becomes "Other" and every missing daily value
//     becomes its zero default, field by field
//   - population and integer daily values are truncated toward zero, the
//     reproduction rate is kept as a float; numeric strings are accepted
//   - entities keep their first-seen order and records keep source order
//
// Any violation fails the whole document with serrors.ErrMalformedInput.
func Normalize(raw []byte) (*domain.Dataset, error) {
	d := jx.GetDecoder()
	defer jx.PutDecoder(d)
	d.ResetBytes(raw)

	return decode(d)
}

// Decode is the streaming form of Normalize. It reads the whole document from r
// without buffering it in memory first. A failure of r itself is returned as is,
// not as malformed input.
func Decode(r io.Reader) (*domain.Dataset, error) {
	tr := &trackingReader{r: r}

	ds, err := decode(jx.Decode(tr, readBufSize))
	if err != nil && tr.err != nil {
		return nil, errors.Wrap(tr.err, "could not read document")
	}

	return ds, err
}

// trackingReader remembers the first read error other than io.EOF.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil { //nolint: errorlint
		t.err = err
	}

	return n, err //nolint: wrapcheck
}

// obj iterates over an object like d.Obj, but returns the callback errors
// without the wrapping jx adds at every level.
func obj(d *jx.Decoder, f func(d *jx.Decoder, key string) error) error {
	var cbErr error
	err := d.Obj(func(d *jx.Decoder, key string) error {
		cbErr = f(d, key)

		return cbErr
	})
	if cbErr != nil {
		return cbErr
	}

	return err //nolint: wrapcheck
}

// arr is the array counterpart of obj.
func arr(d *jx.Decoder, f func(d *jx.Decoder) error) error {
	var cbErr error
	err := d.Arr(func(d *jx.Decoder) error {
		cbErr = f(d)

		return cbErr
	})
	if cbErr != nil {
		return cbErr
	}

	return err //nolint: wrapcheck
}

func decode(d *jx.Decoder) (*domain.Dataset, error) {
	if tt := d.Next(); tt != jx.Object {
		return nil, serrors.With(serrors.ErrMalformedInput, "document must be a JSON object, got %s", tt)
	}

	ds := domain.NewDataset()
	err := obj(d, func(d *jx.Decoder, key string) error {
		if IsExcluded(key) {
			if err := d.Skip(); err != nil {
				return errors.Wrapf(err, "skip %q", key)
			}

			return nil
		}

		code := OutputCode(key)
		if ds.Has(code) {
			return errors.Errorf("duplicate entity code %q", code)
		}
		if strings.EqualFold(code, domain.MetadataCode) {
			return errors.Errorf("entity code %q is reserved for the metadata artifact", code)
		}

		meta, series, err := decodeEntity(d, code)
		if err != nil {
			return errors.Wrapf(err, "entity %q", key)
		}
		ds.Add(meta, series)

		return nil
	})
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrMalformedInput, err, "could not normalize document")
	}

	if tt := d.Next(); tt != jx.Invalid {
		return nil, serrors.With(serrors.ErrMalformedInput, "unexpected %s after document", tt)
	}

	return ds, nil
}

func decodeEntity(d *jx.Decoder, code string) (domain.EntityMetadata, []domain.DailyRecord, error) {
	meta := domain.EntityMetadata{Code: code, Continent: domain.DefaultContinent}
	if tt := d.Next(); tt != jx.Object {
		return meta, nil, errors.Errorf("expected object, got %s", tt)
	}

	var (
		series                              []domain.DailyRecord
		hasLocation, hasPopulation, hasData bool
	)
	err := obj(d, func(d *jx.Decoder, key string) error {
		switch key {
		case "location":
			s, err := decodeString(d)
			if err != nil {
				return errors.Wrap(err, "location")
			}
			meta.Name, hasLocation = s, true
		case "continent":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := decodeString(d)
			if err != nil {
				return errors.Wrap(err, "continent")
			}
			meta.Continent = s
		case "population":
			n, err := decodeInt(d)
			if err != nil {
				return errors.Wrap(err, "population")
			}
			if n < 0 {
				return errors.Errorf("population: negative value %d", n)
			}
			meta.Population, hasPopulation = n, true
		case "data":
			s, err := decodeSeries(d)
			if err != nil {
				return errors.Wrap(err, "data")
			}
			series, hasData = s, true
		default:
			return d.Skip()
		}

		return nil
	})
	if err != nil {
		return meta, nil, err
	}

	switch {
	case !hasLocation:
		return meta, nil, errors.New("missing location")
	case !hasPopulation:
		return meta, nil, errors.New("missing population")
	case !hasData:
		return meta, nil, errors.New("missing data")
	}

	return meta, series, nil
}

func decodeSeries(d *jx.Decoder) ([]domain.DailyRecord, error) {
	if tt := d.Next(); tt != jx.Array {
		return nil, errors.Errorf("expected array, got %s", tt)
	}

	series := []domain.DailyRecord{}
	err := arr(d, func(d *jx.Decoder) error {
		rec, err := decodeRecord(d)
		if err != nil {
			return errors.Wrapf(err, "record %d", len(series))
		}
		series = append(series, rec)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return series, nil
}

func decodeRecord(d *jx.Decoder) (domain.DailyRecord, error) {
	rec := newRecord()
	if tt := d.Next(); tt != jx.Object {
		return rec, errors.Errorf("expected object, got %s", tt)
	}

	hasDate := false
	err := obj(d, func(d *jx.Decoder, key string) error {
		if key == "date" {
			s, err := decodeString(d)
			if err != nil {
				return errors.Wrap(err, "date")
			}
			rec.Date, hasDate = s, true

			return nil
		}

		f, ok := recordFields[key]
		if !ok {
			return d.Skip()
		}
		// an explicit null is treated like an absent value
		if d.Next() == jx.Null {
			f.setDefault(&rec)

			return d.Null()
		}

		if err := f.decode(d, &rec); err != nil {
			return errors.Wrap(err, key)
		}

		return nil
	})
	if err != nil {
		return rec, err
	}
	if !hasDate {
		return rec, errors.New("missing date")
	}

	return rec, nil
}
