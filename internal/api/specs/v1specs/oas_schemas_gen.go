// Code generated by ogen, DO NOT EDIT.

package v1specs

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

func (s *ServerErrorStatusCode) Error() string {
	return fmt.Sprintf("code %d: %+v", s.StatusCode, s.Response)
}

// Ref: #/components/schemas/DailyRecord
type DailyRecord struct {
	Date                  string  `json:"date"`
	NewCases              int64   `json:"new_cases"`
	NewDeaths             int64   `json:"new_deaths"`
	ReproductionRate      float64 `json:"reproduction_rate"`
	PeopleVaccinated      int64   `json:"people_vaccinated"`
	PeopleFullyVaccinated int64   `json:"people_fully_vaccinated"`
	TotalBoosters         int64   `json:"total_boosters"`
}

// GetDate returns the value of Date.
func (s *DailyRecord) GetDate() string {
	return s.Date
}

// GetNewCases returns the value of NewCases.
func (s *DailyRecord) GetNewCases() int64 {
	return s.NewCases
}

// GetNewDeaths returns the value of NewDeaths.
func (s *DailyRecord) GetNewDeaths() int64 {
	return s.NewDeaths
}

// GetReproductionRate returns the value of ReproductionRate.
func (s *DailyRecord) GetReproductionRate() float64 {
	return s.ReproductionRate
}

// GetPeopleVaccinated returns the value of PeopleVaccinated.
func (s *DailyRecord) GetPeopleVaccinated() int64 {
	return s.PeopleVaccinated
}

// GetPeopleFullyVaccinated returns the value of PeopleFullyVaccinated.
func (s *DailyRecord) GetPeopleFullyVaccinated() int64 {
	return s.PeopleFullyVaccinated
}

// GetTotalBoosters returns the value of TotalBoosters.
func (s *DailyRecord) GetTotalBoosters() int64 {
	return s.TotalBoosters
}

// SetDate sets the value of Date.
func (s *DailyRecord) SetDate(val string) {
	s.Date = val
}

// SetNewCases sets the value of NewCases.
func (s *DailyRecord) SetNewCases(val int64) {
	s.NewCases = val
}

// SetNewDeaths sets the value of NewDeaths.
func (s *DailyRecord) SetNewDeaths(val int64) {
	s.NewDeaths = val
}

// SetReproductionRate sets the value of ReproductionRate.
func (s *DailyRecord) SetReproductionRate(val float64) {
	s.ReproductionRate = val
}

// SetPeopleVaccinated sets the value of PeopleVaccinated.
func (s *DailyRecord) SetPeopleVaccinated(val int64) {
	s.PeopleVaccinated = val
}

// SetPeopleFullyVaccinated sets the value of PeopleFullyVaccinated.
func (s *DailyRecord) SetPeopleFullyVaccinated(val int64) {
	s.PeopleFullyVaccinated = val
}

// SetTotalBoosters sets the value of TotalBoosters.
func (s *DailyRecord) SetTotalBoosters(val int64) {
	s.TotalBoosters = val
}

// Ref: #/components/schemas/EntityMetadata
type EntityMetadata struct {
	IsoCode    string `json:"isoCode"`
	Location   string `json:"location"`
	Continent  string `json:"continent"`
	Population int64  `json:"population"`
}

// GetIsoCode returns the value of IsoCode.
func (s *EntityMetadata) GetIsoCode() string {
	return s.IsoCode
}

// GetLocation returns the value of Location.
func (s *EntityMetadata) GetLocation() string {
	return s.Location
}

// GetContinent returns the value of Continent.
func (s *EntityMetadata) GetContinent() string {
	return s.Continent
}

// GetPopulation returns the value of Population.
func (s *EntityMetadata) GetPopulation() int64 {
	return s.Population
}

// SetIsoCode sets the value of IsoCode.
func (s *EntityMetadata) SetIsoCode(val string) {
	s.IsoCode = val
}

// SetLocation sets the value of Location.
func (s *EntityMetadata) SetLocation(val string) {
	s.Location = val
}

// SetContinent sets the value of Continent.
func (s *EntityMetadata) SetContinent(val string) {
	s.Continent = val
}

// SetPopulation sets the value of Population.
func (s *EntityMetadata) SetPopulation(val int64) {
	s.Population = val
}

// Ref: #/components/schemas/Error
type Error struct {
	ErrorMessage string `json:"error_message"`
}

// GetErrorMessage returns the value of ErrorMessage.
func (s *Error) GetErrorMessage() string {
	return s.ErrorMessage
}

// SetErrorMessage sets the value of ErrorMessage.
func (s *Error) SetErrorMessage(val string) {
	s.ErrorMessage = val
}

func (*Error) listRunsRes() {}

// GetMetadataNotFound is response for GetMetadata operation.
type GetMetadataNotFound struct{}

func (*GetMetadataNotFound) getMetadataRes() {}

type GetMetadataOK map[string]EntityMetadata

func (s *GetMetadataOK) init() GetMetadataOK {
	m := *s
	if m == nil {
		m = map[string]EntityMetadata{}
		*s = m
	}
	return m
}

func (*GetMetadataOK) getMetadataRes() {}

// GetSeriesNotFound is response for GetSeries operation.
type GetSeriesNotFound struct{}

func (*GetSeriesNotFound) getSeriesRes() {}

type GetSeriesOKApplicationJSON []DailyRecord

func (*GetSeriesOKApplicationJSON) getSeriesRes() {}

// NewOptDateTime returns new OptDateTime with value set to v.
func NewOptDateTime(v time.Time) OptDateTime {
	return OptDateTime{
		Value: v,
		Set:   true,
	}
}

// OptDateTime is optional time.Time.
type OptDateTime struct {
	Value time.Time
	Set   bool
}

// IsSet returns true if OptDateTime was set.
func (o OptDateTime) IsSet() bool { return o.Set }

// Reset unsets value.
func (o *OptDateTime) Reset() {
	var v time.Time
	o.Value = v
	o.Set = false
}

// SetTo sets value to v.
func (o *OptDateTime) SetTo(v time.Time) {
	o.Set = true
	o.Value = v
}

// Get returns value and boolean that denotes whether value was set.
func (o OptDateTime) Get() (v time.Time, ok bool) {
	if !o.Set {
		return v, false
	}
	return o.Value, true
}

// Or returns value if set, or given parameter if does not.
func (o OptDateTime) Or(d time.Time) time.Time {
	if v, ok := o.Get(); ok {
		return v
	}
	return d
}

// NewOptInt returns new OptInt with value set to v.
func NewOptInt(v int) OptInt {
	return OptInt{
		Value: v,
		Set:   true,
	}
}

// OptInt is optional int.
type OptInt struct {
	Value int
	Set   bool
}

// IsSet returns true if OptInt was set.
func (o OptInt) IsSet() bool { return o.Set }

// Reset unsets value.
func (o *OptInt) Reset() {
	var v int
	o.Value = v
	o.Set = false
}

// SetTo sets value to v.
func (o *OptInt) SetTo(v int) {
	o.Set = true
	o.Value = v
}

// Get returns value and boolean that denotes whether value was set.
func (o OptInt) Get() (v int, ok bool) {
	if !o.Set {
		return v, false
	}
	return o.Value, true
}

// Or returns value if set, or given parameter if does not.
func (o OptInt) Or(d int) int {
	if v, ok := o.Get(); ok {
		return v
	}
	return d
}

// NewOptString returns new OptString with value set to v.
func NewOptString(v string) OptString {
	return OptString{
		Value: v,
		Set:   true,
	}
}

// OptString is optional string.
type OptString struct {
	Value string
	Set   bool
}

// IsSet returns true if OptString was set.
func (o OptString) IsSet() bool { return o.Set }

// Reset unsets value.
func (o *OptString) Reset() {
	var v string
	o.Value = v
	o.Set = false
}

// SetTo sets value to v.
func (o *OptString) SetTo(v string) {
	o.Set = true
	o.Value = v
}

// Get returns value and boolean that denotes whether value was set.
func (o OptString) Get() (v string, ok bool) {
	if !o.Set {
		return v, false
	}
	return o.Value, true
}

// Or returns value if set, or given parameter if does not.
func (o OptString) Or(d string) string {
	if v, ok := o.Get(); ok {
		return v
	}
	return d
}

// Ref: #/components/schemas/Run
type Run struct {
	ID              uuid.UUID   `json:"id"`
	Status          RunStatus   `json:"status"`
	Entities        int         `json:"entities"`
	Artifacts       int         `json:"artifacts"`
	FailedArtifacts int         `json:"failedArtifacts"`
	LastError       OptString   `json:"lastError"`
	StartedAt       time.Time   `json:"startedAt"`
	FinishedAt      OptDateTime `json:"finishedAt"`
}

// GetID returns the value of ID.
func (s *Run) GetID() uuid.UUID {
	return s.ID
}

// GetStatus returns the value of Status.
func (s *Run) GetStatus() RunStatus {
	return s.Status
}

// GetEntities returns the value of Entities.
func (s *Run) GetEntities() int {
	return s.Entities
}

// GetArtifacts returns the value of Artifacts.
func (s *Run) GetArtifacts() int {
	return s.Artifacts
}

// GetFailedArtifacts returns the value of FailedArtifacts.
func (s *Run) GetFailedArtifacts() int {
	return s.FailedArtifacts
}

// GetLastError returns the value of LastError.
func (s *Run) GetLastError() OptString {
	return s.LastError
}

// GetStartedAt returns the value of StartedAt.
func (s *Run) GetStartedAt() time.Time {
	return s.StartedAt
}

// GetFinishedAt returns the value of FinishedAt.
func (s *Run) GetFinishedAt() OptDateTime {
	return s.FinishedAt
}

// SetID sets the value of ID.
func (s *Run) SetID(val uuid.UUID) {
	s.ID = val
}

// SetStatus sets the value of Status.
func (s *Run) SetStatus(val RunStatus) {
	s.Status = val
}

// SetEntities sets the value of Entities.
func (s *Run) SetEntities(val int) {
	s.Entities = val
}

// SetArtifacts sets the value of Artifacts.
func (s *Run) SetArtifacts(val int) {
	s.Artifacts = val
}

// SetFailedArtifacts sets the value of FailedArtifacts.
func (s *Run) SetFailedArtifacts(val int) {
	s.FailedArtifacts = val
}

// SetLastError sets the value of LastError.
func (s *Run) SetLastError(val OptString) {
	s.LastError = val
}

// SetStartedAt sets the value of StartedAt.
func (s *Run) SetStartedAt(val time.Time) {
	s.StartedAt = val
}

// SetFinishedAt sets the value of FinishedAt.
func (s *Run) SetFinishedAt(val OptDateTime) {
	s.FinishedAt = val
}

// Ref: #/components/schemas/RunList
type RunList struct {
	Runs []Run `json:"runs"`
}

// GetRuns returns the value of Runs.
func (s *RunList) GetRuns() []Run {
	return s.Runs
}

// SetRuns sets the value of Runs.
func (s *RunList) SetRuns(val []Run) {
	s.Runs = val
}

func (*RunList) listRunsRes() {}

type RunStatus string

const (
	RunStatusRUNNING   RunStatus = "RUNNING"
	RunStatusCOMPLETED RunStatus = "COMPLETED"
	RunStatusPARTIAL   RunStatus = "PARTIAL"
	RunStatusFAILED    RunStatus = "FAILED"
)

// AllValues returns all RunStatus values.
func (RunStatus) AllValues() []RunStatus {
	return []RunStatus{
		RunStatusRUNNING,
		RunStatusCOMPLETED,
		RunStatusPARTIAL,
		RunStatusFAILED,
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RunStatus) MarshalText() ([]byte, error) {
	switch s {
	case RunStatusRUNNING:
		return []byte(s), nil
	case RunStatusCOMPLETED:
		return []byte(s), nil
	case RunStatusPARTIAL:
		return []byte(s), nil
	case RunStatusFAILED:
		return []byte(s), nil
	default:
		return nil, errors.Errorf("invalid value: %q", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RunStatus) UnmarshalText(data []byte) error {
	switch RunStatus(data) {
	case RunStatusRUNNING:
		*s = RunStatusRUNNING
		return nil
	case RunStatusCOMPLETED:
		*s = RunStatusCOMPLETED
		return nil
	case RunStatusPARTIAL:
		*s = RunStatusPARTIAL
		return nil
	case RunStatusFAILED:
		*s = RunStatusFAILED
		return nil
	default:
		return errors.Errorf("invalid value: %q", data)
	}
}

// Ref: #/components/schemas/ServerError
type ServerError struct {
	Error OptString `json:"error"`
}

// GetError returns the value of Error.
func (s *ServerError) GetError() OptString {
	return s.Error
}

// SetError sets the value of Error.
func (s *ServerError) SetError(val OptString) {
	s.Error = val
}

// ServerErrorStatusCode wraps ServerError with StatusCode.
type ServerErrorStatusCode struct {
	StatusCode int
	Response   ServerError
}

// GetStatusCode returns the value of StatusCode.
func (s *ServerErrorStatusCode) GetStatusCode() int {
	return s.StatusCode
}

// GetResponse returns the value of Response.
func (s *ServerErrorStatusCode) GetResponse() ServerError {
	return s.Response
}

// SetStatusCode sets the value of StatusCode.
func (s *ServerErrorStatusCode) SetStatusCode(val int) {
	s.StatusCode = val
}

// SetResponse sets the value of Response.
func (s *ServerErrorStatusCode) SetResponse(val ServerError) {
	s.Response = val
}
