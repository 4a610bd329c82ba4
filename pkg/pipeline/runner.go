package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/diagram"
	"github.com/matzehuels/rulemaker/pkg/io"
	"github.com/matzehuels/rulemaker/pkg/observability"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// Runner executes the pipeline with caching. It holds no per-run state,
// so one Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached layouts. Zero means cache.LayoutTTL.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means cache.DefaultKeyer and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs load → layout → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	rl, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Rule = rl
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.StepCount = len(rl.Steps)
	result.Stats.EdgeCount = rl.EdgeCount()

	// Stage 2: Layout
	layoutStart := time.Now()
	d, layoutHit, err := r.LayoutWithCacheInfo(ctx, rl, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Diagram = d
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit
	result.RuleHash, _ = RuleHash(rl)

	r.Logger.Info("computed layout",
		"rule", rl.ID,
		"steps", len(d.Nodes),
		"edges", len(d.Edges),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)
	for _, w := range d.Warnings {
		r.Logger.Warn(w, "rule", rl.ID)
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load returns opts.Rule, or the first rule of opts.Source.
func (r *Runner) Load(ctx context.Context, opts Options) (*rule.Rule, error) {
	if opts.Rule != nil {
		return opts.Rule, nil
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Source)
	start := time.Now()
	rl, err := io.ImportRule(opts.Source)
	count := 0
	if rl != nil {
		count = 1
	}
	hooks.OnLoadComplete(ctx, opts.Source, count, time.Since(start), err)
	return rl, err
}

// LayoutWithCacheInfo computes the diagram of rl, consulting the cache
// first unless opts.Refresh is set.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, rl *rule.Rule, opts Options) (diagram.Diagram, bool, error) {
	opts.SetDefaults()
	if err := ctx.Err(); err != nil {
		return diagram.Diagram{}, false, err
	}

	ruleHash, err := RuleHash(rl)
	if err != nil {
		return diagram.Diagram{}, false, err
	}
	keyOpts, err := opts.LayoutKeyOpts()
	if err != nil {
		return diagram.Diagram{}, false, err
	}
	key := r.Keyer.LayoutKey(ruleHash, keyOpts)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if d, err := unmarshalDiagram(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return d, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, rl.ID, len(rl.Steps))
	start := time.Now()
	d := ComputeLayout(rl, opts)
	hooks.OnLayoutComplete(ctx, rl.ID, time.Since(start), nil)

	if data, err := marshalDiagram(d); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.layoutTTL()); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return d, false, nil
}

// Layout is LayoutWithCacheInfo without the hit flag.
func (r *Runner) Layout(ctx context.Context, rl *rule.Rule, opts Options) (diagram.Diagram, error) {
	d, _, err := r.LayoutWithCacheInfo(ctx, rl, opts)
	return d, err
}

// RenderWithCacheInfo renders d in every requested format. The hit flag is
// true only when every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, d diagram.Diagram, opts Options) (map[string][]byte, bool, error) {
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	layoutData, err := marshalDiagram(d)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	sub := opts
	sub.Formats = missing
	rendered, err := Render(ctx, d, sub)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, false, nil
}

func (r *Runner) layoutTTL() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.LayoutTTL
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
