package minutes

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

const (
	// DefaultSentinel is the value the extractor writes for unknown fields
	DefaultSentinel = "Not mentioned"
	// DefaultPlaceholder is rendered for missing fields without an override
	DefaultPlaceholder = "Not mentioned"
)

// Defaults is the per-field placeholder table used when a record field is missing.
//
// A field is missing when it is absent, null, blank, or exactly equal to Sentinel.
// Date and time fields without an entry in Fields fall back to the render clock.
type Defaults struct {
	Sentinel    string            `yaml:"sentinel" json:"sentinel"`
	Placeholder string            `yaml:"placeholder" json:"placeholder"`
	Fields      map[string]string `yaml:"fields" json:"fields"`
}

var knownFields = map[string]struct{}{
	entities.FieldMeetingTitle:           {},
	entities.FieldMeetingDate:            {},
	entities.FieldStartTime:              {},
	entities.FieldEndTime:                {},
	entities.FieldLocation:               {},
	entities.FieldChairperson:            {},
	entities.FieldMinuteTaker:            {},
	entities.FieldPreviousMeetingDate:    {},
	entities.FieldDeclarationsOfInterest: {},
	entities.FieldNextMeetingDate:        {},
	entities.FieldMeetingClosedTime:      {},
	entities.FieldPreparedBy:             {},
	entities.FieldPreparationDate:        {},
	entities.FieldAttendees:              {},
	entities.FieldApologies:              {},
	entities.FieldMattersArising:         {},
	entities.FieldMajorProjects:          {},
	entities.FieldMinorProjects:          {},
	entities.FieldEstatesStrategy:        {},
	entities.FieldHealthAndSafety:        {},
	entities.FieldRiskRegister:           {},
	entities.FieldFinanceUpdate:          {},
	entities.FieldAnyOtherBusiness:       {},
}

// BuiltinDefaults returns the stock placeholder table
func BuiltinDefaults() Defaults {
	return Defaults{
		Sentinel:    DefaultSentinel,
		Placeholder: DefaultPlaceholder,
		Fields: map[string]string{
			entities.FieldMeetingTitle:           "Capital & Estates Meeting",
			entities.FieldDeclarationsOfInterest: "None declared.",
		},
	}
}

// LoadDefaults reads a YAML defaults file and merges it onto the built-in table.
// An empty path returns the built-in table.
func LoadDefaults(path string) (Defaults, error) {
	if path == "" {
		return BuiltinDefaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("failed to read minutes defaults: %w", err)
	}
	return ParseDefaults(data)
}

// ParseDefaults decodes a YAML defaults table and merges it onto the built-in table
func ParseDefaults(data []byte) (Defaults, error) {
	var override Defaults
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Defaults{}, fmt.Errorf("failed to parse minutes defaults: %w", err)
	}

	if err := override.validate(); err != nil {
		return Defaults{}, err
	}

	return BuiltinDefaults().Merge(override), nil
}

// Merge returns d with every non-empty value of other applied on top
func (d Defaults) Merge(other Defaults) Defaults {
	out := Defaults{
		Sentinel:    d.Sentinel,
		Placeholder: d.Placeholder,
		Fields:      make(map[string]string, len(d.Fields)+len(other.Fields)),
	}
	for k, v := range d.Fields {
		out.Fields[k] = v
	}

	if other.Sentinel != "" {
		out.Sentinel = other.Sentinel
	}
	if other.Placeholder != "" {
		out.Placeholder = other.Placeholder
	}
	for k, v := range other.Fields {
		if v != "" {
			out.Fields[k] = v
		}
	}
	return out
}

func (d Defaults) validate() error {
	var unknown []string
	for k := range d.Fields {
		if _, ok := knownFields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown minutes fields in defaults: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// isMissing reports whether a raw value should be replaced by its default
func (d Defaults) isMissing(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || trimmed == d.Sentinel
}
