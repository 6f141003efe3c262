package domain

// WorldCode is the reserved entity code under which the whole-world aggregate is exported.
const WorldCode = "WRL"

// MetadataCode names the metadata artifact. No entity may be exported under it,
// compared case-insensitively.
const MetadataCode = "countries"

// DefaultContinent is used for entities whose source row carries no continent.
const DefaultContinent = "Other"

// EntityMetadata describes a single exported entity (a country or the world aggregate).
// JSON names follow the artifact layout consumed by the downstream site.
type EntityMetadata struct {
	// Code is the entity code, unique across a Dataset.
	Code string `json:"isoCode"`
	// Name is the human readable entity name (the source "location").
	Name string `json:"location"`
	// Continent is the continent name, DefaultContinent when the source has none.
	Continent string `json:"continent"`
	// Population is the coerced, non-negative population figure.
	Population int64 `json:"population"`
}

// DailyRecord is one day of observations for an entity. Missing source values are zero.
type DailyRecord struct {
	Date                  string  `json:"date"`
	NewCases              int64   `json:"new_cases"`
	NewDeaths             int64   `json:"new_deaths"`
	ReproductionRate      float64 `json:"reproduction_rate"`
	PeopleVaccinated      int64   `json:"people_vaccinated"`
	PeopleFullyVaccinated int64   `json:"people_fully_vaccinated"`
	TotalBoosters         int64   `json:"total_boosters"`
}

// Dataset is the normalized form of one source document. It only lives for the
// duration of a run; persistence is delegated to the emitter.
//
// Codes keeps the first-seen order of the retained entity codes. Metadata and
// Series are always keyed by exactly the codes listed in Codes.
type Dataset struct {
	Codes    []string
	Metadata map[string]EntityMetadata
	Series   map[string][]DailyRecord
}

// NewDataset returns an empty Dataset ready to be filled with Add.
func NewDataset() *Dataset {
	return &Dataset{
		Metadata: make(map[string]EntityMetadata),
		Series:   make(map[string][]DailyRecord),
	}
}

// Has reports whether the dataset already holds code.
func (d *Dataset) Has(code string) bool {
	_, ok := d.Metadata[code]

	return ok
}

// Add appends an entity with its series. Callers must make sure the code is not present yet.
func (d *Dataset) Add(meta EntityMetadata, series []DailyRecord) {
	if series == nil {
		series = []DailyRecord{}
	}

	d.Codes = append(d.Codes, meta.Code)
	d.Metadata[meta.Code] = meta
	d.Series[meta.Code] = series
}

// Len returns the number of entities in the dataset.
func (d *Dataset) Len() int { return len(d.Codes) }
