// Package catalog loads and validates the agent catalog the plan compiler resolves against.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// DefaultPath is the catalog file used when none is configured.
const DefaultPath = "agents.yaml"

// ErrEmptyCatalog is returned when a catalog file defines no agents.
var ErrEmptyCatalog = errors.New("catalog defines no agents")

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// File is the on-disk catalog document.
type File struct {
	Agents []models.AgentDescriptor `yaml:"agents"`
}

// Load reads and validates the catalog at path.
func Load(fs afero.Fs, path string) (*models.Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates a YAML catalog document.
// Unknown keys are rejected so typos do not silently drop keywords.
func Parse(data []byte) (*models.Catalog, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := Validate(f.Agents); err != nil {
		return nil, err
	}
	return models.NewCatalog(f.Agents...), nil
}

// Validate checks descriptors: at least one agent, every name non-blank and
// unique ignoring case, no blank keywords.
func Validate(agents []models.AgentDescriptor) error {
	if len(agents) == 0 {
		return ErrEmptyCatalog
	}

	var problems []string
	seen := make(map[string]int, len(agents))
	for i, a := range agents {
		if err := validate.Struct(a); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validate agent %d: %w", i+1, err)
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("agent %d: %s", i+1, formatValidationError(fe)))
			}
			continue
		}
		key := strings.ToLower(strings.TrimSpace(a.Name))
		if prev, dup := seen[key]; dup {
			problems = append(problems, fmt.Sprintf("agent %d: name %q duplicates agent %d", i+1, a.Name, prev))
			continue
		}
		seen[key] = i + 1
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Marshal encodes a catalog as a YAML document.
func Marshal(cat *models.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Agents: cat.Agents()}); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "nonempty":
		return fmt.Sprintf("%s cannot be empty or whitespace", err.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag())
	}
}

// Default returns the built-in industrial asset operations catalog.
func Default() *models.Catalog {
	return models.NewCatalog(
		models.AgentDescriptor{
			Name:        "IoT Data Download",
			Description: "Lists sites, assets and sensors, and retrieves historical sensor readings for an asset over a time range.",
			Keywords:    []string{"iot", "sensor data", "download", "sites", "assets", "metadata", "history"},
			ExampleTasks: []string{
				"List all assets at site MAIN",
				"Download supply temperature readings for Chiller 6 for the last week",
			},
		},
		models.AgentDescriptor{
			Name:        "Failure Mode Sensor Relations",
			Description: "Relates asset failure modes to the sensors that can detect them.",
			Keywords:    []string{"failure mode", "fmsr", "failure", "root cause"},
			ExampleTasks: []string{
				"List the failure modes of a centrifugal chiller",
				"Which sensors detect compressor overheating in Chiller 9?",
			},
		},
		models.AgentDescriptor{
			Name:        "TSFM",
			Description: "Time series foundation models: forecasting, anomaly detection and model fine-tuning on sensor data.",
			Keywords:    []string{"forecast", "forecasting", "anomaly", "anomaly detection", "time series", "tsfm"},
			ExampleTasks: []string{
				"Forecast the power input of Chiller 6 for the next 3 days",
				"Detect anomalies in condenser water flow for June 2020",
			},
		},
		models.AgentDescriptor{
			Name:        "Work Order Generator",
			Description: "Reviews maintenance history and creates or recommends work orders for assets.",
			Keywords:    []string{"work order", "maintenance", "repair", "wo"},
			ExampleTasks: []string{
				"Recommend a work order for the anomaly found on Chiller 6",
			},
		},
	)
}
