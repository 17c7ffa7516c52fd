// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment extended with builtins that run the geometry operators
// (contouring, clipping, sectioning, tubing, distance fields and implicit
// previews) and produces a scene.Scene from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chazu/osteo/pkg/cache"
	"github.com/chazu/osteo/pkg/config"
	"github.com/chazu/osteo/pkg/distance"
	"github.com/chazu/osteo/pkg/scene"
	"github.com/chazu/osteo/pkg/volume"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a scene that
// fails validation.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	cfg       *config.Config
	distances *distance.Engine
	logger    *zap.Logger
	timeout   time.Duration
}

// NewEngine creates an engine. A nil cfg uses config.DefaultConfig, a nil
// store disables the distance cache and a nil logger discards logs.
func NewEngine(cfg *config.Config, store cache.Store, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Engine.Timeout
	if timeout <= 0 {
		timeout = DefaultEvalTimeout
	}
	return &Engine{
		cfg:       cfg,
		distances: distance.New(store, logger),
		logger:    logger.With(zap.String("component", "engine")),
		timeout:   timeout,
	}
}

// Evaluate runs source against vol, which may be nil for scripts that only
// preview implicit functions.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval/validation failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(vol *volume.Grid, source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	runID := uuid.NewString()
	log := e.logger.With(zap.String("run", runID))
	start := time.Now()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		s, evalErrs, err := e.evaluate(vol, source, runID, log)
		ch <- evalResult{scene: s, errors: evalErrs, err: err}
	}()

	s, evalErrs, err := waitWithTimeout(ch, gen, e.timeout, &e.mu, &e.generation)
	switch {
	case err != nil:
		log.Error("scene evaluation failed", zap.Error(err))
	case len(evalErrs) > 0:
		log.Info("scene script has errors",
			zap.Int("errors", len(evalErrs)),
			zap.String("first", evalErrs[0].Error()))
	default:
		log.Info("scene evaluated",
			zap.Int("items", s.Len()),
			zap.Duration("elapsed", time.Since(start)))
	}
	return s, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(vol *volume.Grid, source, runID string, log *zap.Logger) (*scene.Scene, []EvalError, error) {
	ev := &evaluation{
		scene:     scene.New(runID, e.cfg.Render.Background),
		vol:       vol,
		cfg:       e.cfg,
		distances: e.distances,
		logger:    log,
	}

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return ev.scene, nil, nil
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, ev)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	var evalErrs []EvalError
	for _, f := range scene.Validate(ev.scene, e.cfg.Palette) {
		if f.Severity == scene.SeverityWarning {
			log.Warn("scene validation", zap.String("item", f.Item), zap.String("finding", f.Message))
			continue
		}
		evalErrs = append(evalErrs, EvalError{Message: f.Error()})
	}
	if len(evalErrs) > 0 {
		return nil, evalErrs, nil
	}
	return ev.scene, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
