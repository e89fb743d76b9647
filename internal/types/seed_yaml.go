package types

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v2"

	"github.com/buildathon/scoring-api/internal/validator"
)

var tracer = otel.Tracer("github.com/buildathon/scoring-api/internal/types")

type SeedRubric struct {
	Weights     map[string]float64 `yaml:"weights"`
	Description string             `yaml:"description"`
}

type SeedChallenge struct {
	ID     string     `yaml:"id"     validate:"required,uuid"`
	Title  string     `yaml:"title"  validate:"required,notblank"`
	Judges []string   `yaml:"judges" validate:"dive,uuid"`
	Rubric SeedRubric `yaml:"rubric"`
}

// SeedFile lists the challenges of an event and the judges assigned to each.
type SeedFile struct {
	Challenges []SeedChallenge `yaml:"challenges" validate:"required,dive"`
}

func ParseSeedFile(ctx context.Context, path string) (*SeedFile, error) {
	_, span := tracer.Start(ctx, "ParseSeedFile", trace.WithAttributes(
		attribute.String("seed.path", path),
	))
	defer span.End()

	content, err := os.ReadFile(path)
	if err != nil {
		span.SetStatus(codes.Error, "error reading file")
		span.RecordError(err)
		return nil, err
	}

	var seed SeedFile
	err = yaml.UnmarshalStrict(content, &seed)
	if err != nil {
		span.SetStatus(codes.Error, "error unmarshalling seed yaml")
		span.RecordError(err)
		return nil, err
	}

	span.AddEvent("validating parsed seed YAML")
	v := validator.Create()
	err = v.Validate(seed)
	if err != nil {
		span.SetStatus(codes.Error, "error validating seed yaml")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("seed.challenges", len(seed.Challenges)))
	span.SetStatus(codes.Ok, "")
	span.RecordError(nil)
	return &seed, nil
}
