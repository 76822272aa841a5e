package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/couchcryptid/climate-station-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Default bulk-download directories and output folders per data kind.
const (
	DefaultDailyURL  = "https://dd.weather.gc.ca/climate/observations/daily/csv/NS/"
	DefaultHourlyURL = "https://dd.weather.gc.ca/climate/observations/hourly/csv/NS/"

	DefaultDailyDir  = "NSDailyWeatherData"
	DefaultHourlyDir = "NsHourlyWeather"

	// DefaultTimeZone is the zone hourly LST timestamps are read in when none is
	// configured. Nova Scotia stations report in Atlantic Standard Time, so
	// production jobs should set their zone explicitly.
	DefaultTimeZone = "America/Toronto"
)

// Job is one station run.
type Job struct {
	Station         string            `mapstructure:"station" validate:"required,alphanum"`
	Kind            domain.DataKind   `mapstructure:"kind" validate:"required,oneof=daily hourly"`
	SourceURL       string            `mapstructure:"source_url" validate:"required,url"`
	OutputDir       string            `mapstructure:"output_dir" validate:"required"`
	TimeZone        string            `mapstructure:"time_zone" validate:"required"`
	Rollup          domain.RollupRule `mapstructure:"rollup" validate:"oneof=none sample mean"`
	AllowDuplicates bool              `mapstructure:"allow_duplicates"`
}

// Location loads the job's time zone.
func (j Job) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(j.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", j.TimeZone, err)
	}
	return loc, nil
}

// String identifies the job in logs and errors.
func (j Job) String() string { return j.Station + "/" + string(j.Kind) }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

// Validate checks field constraints and cross-field rules.
func (j Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("job %s: %s", j, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("job %s: %w", j, err)
	}
	if j.Kind == domain.Daily && j.Rollup != domain.RollupNone {
		return fmt.Errorf("job %s: rollup %q applies to hourly jobs only", j, j.Rollup)
	}
	if _, err := j.Location(); err != nil {
		return fmt.Errorf("job %s: %w", j, err)
	}
	return nil
}

// withKindDefaults fills the kind-dependent source and output locations.
func (j Job) withKindDefaults() Job {
	if j.SourceURL == "" {
		j.SourceURL = DefaultDailyURL
		if j.Kind == domain.Hourly {
			j.SourceURL = DefaultHourlyURL
		}
	}
	if j.OutputDir == "" {
		j.OutputDir = DefaultDailyDir
		if j.Kind == domain.Hourly {
			j.OutputDir = DefaultHourlyDir
		}
	}
	return j
}

// baseJob collects the job settings shared by every job from the environment.
func baseJob() (Job, error) {
	kind, err := domain.ParseDataKind(sharedcfg.EnvOrDefault("DATA_KIND", string(domain.Daily)))
	if err != nil {
		return Job{}, fmt.Errorf("invalid DATA_KIND: %w", err)
	}
	rollup, err := domain.ParseRollupRule(os.Getenv("DAILY_ROLLUP"))
	if err != nil {
		return Job{}, fmt.Errorf("invalid DAILY_ROLLUP: %w", err)
	}
	allowDupes, err := parseBool("ALLOW_DUPLICATE_DATES", false)
	if err != nil {
		return Job{}, err
	}
	return Job{
		Kind:            kind,
		TimeZone:        sharedcfg.EnvOrDefault("LOCAL_TIME_ZONE", DefaultTimeZone),
		Rollup:          rollup,
		AllowDuplicates: allowDupes,
	}, nil
}

// envJob builds the single job described by STATION_ID and friends.
func envJob(base Job) (Job, error) {
	job := base
	job.Station = strings.TrimSpace(os.Getenv("STATION_ID"))
	if job.Station == "" {
		return Job{}, errors.New("STATION_ID is required (or set JOBS_FILE)")
	}
	job.SourceURL = os.Getenv("SOURCE_URL")
	job.OutputDir = os.Getenv("OUTPUT_DIR")
	job = job.withKindDefaults()
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// LoadJobs reads a YAML jobs file. Each entry starts from base and overrides
// any of station, kind, source_url, output_dir, time_zone, rollup and
// allow_duplicates:
//
//	jobs:
//	  - station: "8202251"
//	    kind: daily
//	  - station: "8202251"
//	    kind: hourly
//	    time_zone: Etc/GMT+4
//	    rollup: mean
func LoadJobs(path string, base Job) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read JOBS_FILE: %w", err)
	}
	jobs, err := ParseJobs(data, base)
	if err != nil {
		return nil, fmt.Errorf("JOBS_FILE %s: %w", path, err)
	}
	return jobs, nil
}

// ParseJobs decodes and validates a YAML jobs document.
func ParseJobs(data []byte, base Job) ([]Job, error) {
	var doc struct {
		Jobs []map[string]any `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Jobs) == 0 {
		return nil, errors.New("no jobs defined")
	}

	jobs := make([]Job, 0, len(doc.Jobs))
	for i, entry := range doc.Jobs {
		job := base
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &job,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		if err := dec.Decode(entry); err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		if job.Rollup == "" {
			job.Rollup = domain.RollupNone
		}
		job = job.withKindDefaults()
		if err := job.Validate(); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
