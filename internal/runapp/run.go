package runapp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"efrenamer/internal/edmx"
	"efrenamer/internal/logging"
	"efrenamer/internal/modelfile"
	"efrenamer/internal/naming"
	"efrenamer/internal/renamer"
	"efrenamer/internal/rules"
	"efrenamer/internal/selection"
)

// Result summarizes a run. On failure it still reports what was done before
// the failing step; the model may already be saved when the diagram fails.
type Result struct {
	RunID         string
	ModelPath     string
	ModelBackup   string
	DiagramPath   string
	DiagramBackup string
	DiagramFound  bool
	RuleWarnings  []rules.Warning
	Collisions    []naming.Collision
	Stats         renamer.Stats
	Resolved      int
}

// Run renames the configured model and then its diagram. The two files are
// committed one after the other; there is no atomicity across them.
func (a *App) Run(ctx context.Context) (*Result, error) {
	a.stateMu.Lock()
	initialized := a.initialized
	a.stateMu.Unlock()
	if !initialized {
		return nil, fmt.Errorf("app is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runID := logging.NewRunID()
	logger := a.logger.WithRunID(runID)
	result := &Result{RunID: runID, ModelPath: a.cfg.Model.File}
	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "efrenamer.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("model.file", a.cfg.Model.File),
	))
	err := a.run(ctx, logger, result)
	duration := time.Since(start)
	a.metrics.RecordRun(ctx, duration, err)
	endSpan(span, err)

	if a.meterProvider != nil {
		if werr := a.writeMetrics(); werr != nil {
			logger.Warn("failed to write metrics textfile",
				slog.String("file", a.cfg.Observability.MetricsTextfile),
				slog.String("error", werr.Error()),
			)
		}
	}

	if err != nil {
		return result, err
	}
	logger.Info("run complete",
		slog.Int("renamed", result.Stats.TotalRenamed()),
		slog.Int("names_resolved", result.Resolved),
		slog.Int("rule_warnings", len(result.RuleWarnings)),
		slog.Int("collisions", len(result.Collisions)),
		slog.Duration("duration", duration),
	)
	return result, nil
}

func (a *App) run(ctx context.Context, logger *logging.Logger, result *Result) error {
	ctx = logging.WithLogger(ctx, logger)

	var ruleSet naming.Rules
	err := a.phase(ctx, "load_rules", func(ctx context.Context) error {
		var warnings []rules.Warning
		var err error
		ruleSet, warnings, err = rules.Load(a.store.Fs(), a.cfg.Rules)
		if err != nil {
			return err
		}
		phaseLogger := logging.FromContext(ctx)
		for _, w := range warnings {
			phaseLogger.Warn("rule file entry ignored",
				slog.String("file", w.File),
				slog.Int("line", w.Line),
				slog.String("reason", w.Reason),
				slog.String("text", w.Text),
			)
		}
		result.RuleWarnings = warnings
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	mapper := naming.New(a.cfg.Naming, ruleSet, logger.Logger, naming.WithObserver(a.metrics))
	walker := renamer.New(mapper, selection.New(a.cfg.Selection), renamer.Options{
		StrictNamespace: a.cfg.Model.ValidateNamespace,
		Observer:        a.metrics,
		Logger:          logger.Logger,
	})
	defer func() {
		result.Stats = walker.Stats()
		result.Collisions = walker.Collisions()
		result.Resolved = mapper.Resolved()
	}()

	stamp := a.now()
	modelPath := a.cfg.Model.File

	var model *edmx.Model
	err = a.phase(ctx, "rename_model", func(context.Context) error {
		data, err := a.store.Read(modelPath)
		if err != nil {
			return err
		}
		if model, err = edmx.ParseModel(data); err != nil {
			return err
		}
		return walker.RenameModel(model)
	})
	if err != nil {
		return fmt.Errorf("failed to rename model %q: %w", modelPath, err)
	}

	err = a.phase(ctx, "save_model", func(context.Context) error {
		var err error
		result.ModelBackup, err = a.save(modelPath, stamp, model.Bytes)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	logger.Info("model saved",
		slog.String("file", modelPath),
		slog.String("backup", result.ModelBackup),
	)

	diagramPath := modelfile.DiagramPath(modelPath, a.cfg.Model.DiagramSuffix)
	result.DiagramPath = diagramPath
	found, err := a.store.Exists(diagramPath)
	if err != nil {
		return fmt.Errorf("failed to check diagram %q: %w", diagramPath, err)
	}
	if !found {
		logger.Info("diagram not found, skipping", slog.String("file", diagramPath))
		return nil
	}
	result.DiagramFound = true

	var diagram *edmx.Diagram
	err = a.phase(ctx, "rename_diagram", func(context.Context) error {
		data, err := a.store.Read(diagramPath)
		if err != nil {
			return err
		}
		if diagram, err = edmx.ParseDiagram(data); err != nil {
			return err
		}
		return walker.RenameDiagram(diagram, model.Namespace())
	})
	if err != nil {
		return fmt.Errorf("failed to rename diagram %q: %w", diagramPath, err)
	}

	err = a.phase(ctx, "save_diagram", func(context.Context) error {
		var err error
		result.DiagramBackup, err = a.save(diagramPath, stamp, diagram.Bytes)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save diagram: %w", err)
	}
	logger.Info("diagram saved",
		slog.String("file", diagramPath),
		slog.String("backup", result.DiagramBackup),
	)
	return nil
}

// save serializes a document, backs up the file it came from when backups
// are enabled, and replaces the file. It returns the backup path, if any.
func (a *App) save(path string, stamp time.Time, serialize func() ([]byte, error)) (string, error) {
	data, err := serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize %q: %w", path, err)
	}

	var backup string
	if a.cfg.Model.BackupEnabled {
		backup, err = a.store.Backup(path, stamp, a.cfg.Model.BackupSuffixFormat)
		if err != nil {
			return "", err
		}
	}
	return backup, a.store.WriteAtomic(path, data)
}

func (a *App) writeMetrics() error {
	var buf bytes.Buffer
	if err := a.meterProvider.WriteText(&buf); err != nil {
		return err
	}
	return a.store.WriteAtomic(a.cfg.Observability.MetricsTextfile, buf.Bytes())
}

// phase runs fn inside a span named after the phase. fn's context carries the
// run logger tagged with the phase name.
func (a *App) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := a.tracer.Start(ctx, name)
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithFields(slog.String("phase", name)))
	err := fn(ctx)
	endSpan(span, err)
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
