// Package config loads declarative pipeline definitions from YAML and
// translates them into validated stage graphs. Definitions declare their
// schemaVersion; incompatible versions fail loading rather than silently
// misbehaving at run time.
package config

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
	"github.com/input-output-hk/catalyst-forge-pipeline/pipeline"
)

// SupportedSchemaVersion is the definition schema version this build supports.
const SupportedSchemaVersion = "0.1.0"

// File is one parsed definition file.
type File struct {
	// SchemaVersion declares which definition schema the file was written for.
	SchemaVersion string `yaml:"schemaVersion"`

	// Image locates the artifact repository builds publish to.
	Image ImageConfig `yaml:"image"`

	// SourceRepo is the source repository name recorded in release bundles.
	SourceRepo string `yaml:"sourceRepo"`

	// Pipelines holds the pipeline definitions, typically "ci" and "cd".
	Pipelines []PipelineConfig `yaml:"pipelines"`
}

// ImageConfig locates one artifact repository.
type ImageConfig struct {
	Registry   string `yaml:"registry"`
	Namespace  string `yaml:"namespace"`
	Repository string `yaml:"repository"`
}

// PipelineConfig is one named pipeline definition.
type PipelineConfig struct {
	Name   string         `yaml:"name"`
	Stages []domain.Stage `yaml:"stages"`
}

// IsCompatible checks whether a declared schemaVersion is compatible with
// SupportedSchemaVersion under a caret constraint. For 0.x versions that
// admits patch-level differences only.
func IsCompatible(userVersion string) (bool, error) {
	constraint, err := semver.NewConstraint("^" + SupportedSchemaVersion)
	if err != nil {
		return false, fmt.Errorf("invalid supported schema version: %w", err)
	}

	v, err := semver.NewVersion(userVersion)
	if err != nil {
		return false, fmt.Errorf("invalid schema version %q: %w", userVersion, err)
	}

	return constraint.Check(v), nil
}

// Load reads and parses a definition file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.Wrapf("config.load", ferrors.CodeInvalidConfig, err,
			"reading definition file %q", path)
	}
	return Parse(data)
}

// Parse parses a definition document and checks schema compatibility and
// field-level validity. Graph-level validation (dependencies, cycles) happens
// in Graphs.
func Parse(data []byte) (*File, error) {
	const op = "config.parse"

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, ferrors.Wrap(op, ferrors.CodeInvalidConfig, err)
	}

	if file.SchemaVersion == "" {
		return nil, ferrors.New(op, ferrors.CodeInvalidConfig, "schemaVersion is required")
	}
	compatible, err := IsCompatible(file.SchemaVersion)
	if err != nil {
		return nil, ferrors.Wrap(op, ferrors.CodeInvalidConfig, err)
	}
	if !compatible {
		return nil, ferrors.New(op, ferrors.CodeInvalidConfig, fmt.Sprintf(
			"schemaVersion %s is not compatible with supported version %s",
			file.SchemaVersion, SupportedSchemaVersion))
	}

	if len(file.Pipelines) == 0 {
		return nil, ferrors.New(op, ferrors.CodeInvalidConfig, "no pipelines defined")
	}
	for i := range file.Pipelines {
		if err := normalizePipeline(&file.Pipelines[i]); err != nil {
			return nil, err
		}
	}

	return &file, nil
}

// normalizePipeline applies defaults and checks enum fields.
func normalizePipeline(p *PipelineConfig) error {
	const op = "config.parse"

	if p.Name == "" {
		return ferrors.New(op, ferrors.CodeInvalidConfig, "pipeline name is required")
	}
	for i := range p.Stages {
		stage := &p.Stages[i]
		if stage.Policy == "" {
			stage.Policy = domain.PolicyBlocking
		}
		if !validPolicy(stage.Policy) {
			return ferrors.New(op, ferrors.CodeInvalidConfig, fmt.Sprintf(
				"stage %q has unknown policy %q", stage.Name, stage.Policy))
		}
		if !validKind(stage.Kind) {
			return ferrors.New(op, ferrors.CodeInvalidConfig, fmt.Sprintf(
				"stage %q has unknown kind %q", stage.Name, stage.Kind))
		}
	}
	return nil
}

func validPolicy(p domain.GatePolicy) bool {
	return p == domain.PolicyBlocking || p == domain.PolicyAdvisory
}

func validKind(k domain.StageKind) bool {
	switch k {
	case domain.StageKindTest,
		domain.StageKindCoverageCheck,
		domain.StageKindBuildPublish,
		domain.StageKindSecurityScan,
		domain.StageKindDeployVerify:
		return true
	default:
		return false
	}
}

// Graphs builds a validated stage graph per pipeline, keyed by pipeline name.
func (f *File) Graphs() (map[string]*pipeline.Graph, error) {
	graphs := make(map[string]*pipeline.Graph, len(f.Pipelines))
	for _, p := range f.Pipelines {
		if _, dup := graphs[p.Name]; dup {
			return nil, ferrors.New("config.graphs", ferrors.CodeInvalidConfig,
				fmt.Sprintf("duplicate pipeline name %q", p.Name))
		}
		graph, err := pipeline.NewGraph(p.Name, p.Stages)
		if err != nil {
			return nil, err
		}
		graphs[p.Name] = graph
	}
	return graphs, nil
}
