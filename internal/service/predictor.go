// Package service runs the request pipeline: validate the player record,
// resolve its position code, select the position's model and predict.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/playervalue/internal/domain"
	"github.com/alanyoungcy/playervalue/internal/metrics"
	"github.com/alanyoungcy/playervalue/internal/model"
	"github.com/alanyoungcy/playervalue/internal/player"
)

// PositionResolver turns a position code into a position string.
type PositionResolver interface {
	Resolve(ctx context.Context, code int) (string, error)
	Location() string
	Exists(ctx context.Context) (bool, error)
}

// ModelSelector finds and loads the artifact for a position.
type ModelSelector interface {
	Select(ctx context.Context, position string) (model.Selection, error)
	Files(ctx context.Context) ([]string, error)
	Root(ctx context.Context) (string, bool)
}

// Recorder receives pipeline metrics.
type Recorder interface {
	ObservePrediction(outcome string, elapsed time.Duration)
	ObserveModelLoad(position string, cached bool)
	ObserveValue(position string, eur float64)
}

// Alerter forwards deployment faults to operators.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Options tune the Predictor.
type Options struct {
	// StrictSchema rejects request fields outside the player schema.
	StrictSchema bool
	// AlertTimeout bounds one alert delivery.
	AlertTimeout time.Duration
}

// Predictor owns no state between requests.
type Predictor struct {
	resolver PositionResolver
	selector ModelSelector
	recorder Recorder
	alerter  Alerter
	opts     Options
	logger   *slog.Logger
}

// NewPredictor wires the pipeline. recorder and alerter may be nil.
func NewPredictor(resolver PositionResolver, selector ModelSelector, recorder Recorder, alerter Alerter, opts Options, logger *slog.Logger) *Predictor {
	if opts.AlertTimeout <= 0 {
		opts.AlertTimeout = 10 * time.Second
	}
	return &Predictor{
		resolver: resolver,
		selector: selector,
		recorder: recorder,
		alerter:  alerter,
		opts:     opts,
		logger:   logger.With(slog.String("component", "predictor")),
	}
}

// Predict runs the pipeline on a raw request body. Any failure is a
// *domain.Error tagged with the stage that could not be entered.
func (p *Predictor) Predict(ctx context.Context, body []byte) (domain.Prediction, error) {
	start := time.Now()
	stage := domain.StageReceived

	pred, err := p.run(ctx, body, &stage)
	elapsed := time.Since(start)

	if err != nil {
		var de *domain.Error
		if shared, ok := domain.AsError(err); ok {
			cp := *shared
			de = &cp
		} else {
			de = domain.InferenceError("unexpected pipeline failure", err)
		}
		if de.Stage == domain.StageReceived {
			de.Stage = stage.Next()
		}
		p.observe(string(de.Kind), elapsed)
		p.report(ctx, de)
		return domain.Prediction{}, de
	}

	p.observe(metrics.OutcomeOK, elapsed)
	if p.recorder != nil {
		p.recorder.ObserveValue(pred.Position, pred.ValueEUR)
	}
	p.logger.InfoContext(ctx, "prediction served",
		slog.String("position", pred.Position),
		slog.Float64("predicted_value_eur", pred.ValueEUR),
		slog.String("model_path", pred.ModelPath),
		slog.Duration("duration", elapsed),
	)
	return pred, nil
}

func (p *Predictor) run(ctx context.Context, body []byte, stage *domain.Stage) (domain.Prediction, error) {
	// No storage access may happen before the record is valid.
	rec, err := player.Validate(body, p.opts.StrictSchema)
	if err != nil {
		return domain.Prediction{}, err
	}
	*stage = domain.StageValidated

	position, err := p.resolver.Resolve(ctx, rec.PositionCode())
	if err != nil {
		return domain.Prediction{}, err
	}
	*stage = domain.StagePositionResolved

	sel, err := p.selector.Select(ctx, position)
	if err != nil {
		return domain.Prediction{}, err
	}
	*stage = domain.StageModelLoaded
	if p.recorder != nil {
		p.recorder.ObserveModelLoad(position, sel.Cached)
	}

	value, err := model.Predict(sel.Artifact, rec)
	if err != nil {
		return domain.Prediction{}, err
	}
	*stage = domain.StagePredicted

	pred := domain.Prediction{
		ValueEUR:  value,
		Position:  position,
		ModelPath: sel.Path,
	}
	*stage = domain.StageResponded
	return pred, nil
}

func (p *Predictor) observe(outcome string, elapsed time.Duration) {
	if p.recorder != nil {
		p.recorder.ObservePrediction(outcome, elapsed)
	}
}

// report logs the failure and alerts on faults the client cannot fix.
func (p *Predictor) report(ctx context.Context, de *domain.Error) {
	attrs := []any{
		slog.String("kind", string(de.Kind)),
		slog.String("stage", de.Stage.String()),
		slog.String("error", de.Error()),
	}
	if de.Kind.ClientFault() {
		p.logger.InfoContext(ctx, "prediction rejected", attrs...)
		return
	}
	p.logger.ErrorContext(ctx, "prediction failed", attrs...)

	if p.alerter == nil {
		return
	}
	title := fmt.Sprintf("playervalue: %s at %s", de.Kind, de.Stage)
	msg := de.Detail()
	go func() {
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.AlertTimeout)
		defer cancel()
		if err := p.alerter.Notify(actx, string(de.Kind), title, msg); err != nil {
			p.logger.WarnContext(actx, "alert delivery failed", slog.String("error", err.Error()))
		}
	}()
}

// Diagnostics reports the model directory and label file as seen by the
// pipeline.
func (p *Predictor) Diagnostics(ctx context.Context) domain.Diagnostics {
	root, rootOK := p.selector.Root(ctx)
	d := domain.Diagnostics{
		ModelDirectory:       root,
		ModelDirectoryExists: rootOK,
		AvailableModels:      []string{},
		LabelsFile:           p.resolver.Location(),
	}

	if exists, err := p.resolver.Exists(ctx); err == nil {
		d.LabelsExists = exists
	} else {
		p.logger.WarnContext(ctx, "labels existence check failed", slog.String("error", err.Error()))
	}

	if !rootOK {
		d.Error = fmt.Sprintf("Model directory not found: %s", root)
		return d
	}
	files, err := p.selector.Files(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.Error = fmt.Sprintf("Model directory not found: %s", root)
		} else {
			d.Error = fmt.Sprintf("Model directory unreadable: %v", err)
		}
		return d
	}
	if files != nil {
		d.AvailableModels = files
	}
	return d
}
