// Package generation turns research evidence into the first artifact version.
package generation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/research"
	"github.com/batpad/ll-html/internal/telemetry"
	"github.com/batpad/ll-html/internal/templates"
)

const systemPrompt = "You write production-quality HTML, CSS and JavaScript for data visualisation pages. Reply with a single JSON object."

// Options configure a Stage.
type Options struct {
	ObservationChars int
	Logger           zerolog.Logger
	Now              func() time.Time
}

// Stage makes exactly one model call per Generate.
type Stage struct {
	model llm.Client
	opts  Options
}

func NewStage(model llm.Client, opts Options) *Stage {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Stage{model: model, opts: opts}
}

// Generate classifies the request, selects the template and asks the model
// once for the page parts. Every failure is an errs.GenerationFailure.
func (s *Stage) Generate(ctx context.Context, rc *research.Context, cat *templates.Catalog) (artifact.Artifact, error) {
	const op = "generation.generate"
	ctx, span := telemetry.Tracer("generation").Start(ctx, "generate")
	defer span.End()
	fail := func(err error) (artifact.Artifact, error) {
		span.SetStatus(codes.Error, err.Error())
		s.opts.Logger.Warn().Err(err).Msg("generation failed")
		return artifact.Artifact{}, errs.E(errs.GenerationFailure, op, err)
	}
	if rc == nil {
		return fail(errors.New("no research context"))
	}

	kind := templates.Classify(rc.Request)
	tpl, ok := cat.Get(kind)
	if !ok {
		return fail(errors.New("template catalog is empty"))
	}
	span.SetAttributes(attribute.String("template", string(tpl.Kind)))

	prompt, err := generationPrompt(tpl, rc, s.opts.ObservationChars)
	if err != nil {
		return fail(err)
	}
	c, err := s.model.Complete(ctx, llm.Request{Purpose: llm.PurposeGeneration, System: systemPrompt, Prompt: prompt})
	if err != nil {
		return fail(err)
	}
	parts, err := ParseParts(c.Text)
	if err != nil {
		return fail(err)
	}
	a, err := artifact.New(tpl, parts, artifact.Usage{InputTokens: c.InputTokens, OutputTokens: c.OutputTokens}, s.opts.Now())
	if err != nil {
		return fail(err)
	}
	s.opts.Logger.Info().Str("artifact", a.ID).Str("template", string(a.Template)).Int("output_tokens", c.OutputTokens).Msg("artifact generated")
	return a, nil
}
