// Package skill maps intent labels to handlers and dispatches utterances to
// them without ever letting a handler failure escape.
package skill

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/intentiq/pkg/logger"
	"github.com/okian/intentiq/pkg/metrics"
)

// Dispatch outcomes recorded in metrics.
const (
	outcomeOK         = "ok"
	outcomeResolve    = "resolve_error"
	outcomeEntryPoint = "no_entry_point"
	outcomeHandler    = "handler_error"
	sourceBuiltin     = "builtin"
	sourcePlaceholder = "placeholder"
)

// stubName limits which intents may become file names.
var stubName = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// entry is one resolved slot of the mapping. Exactly one of handler/err is
// set, or neither when the skill has no entry point.
type entry struct {
	handler Handler
	err     error
	source  string
}

// Registry holds the intent to handler mapping. The mapping is built once by
// discovery; afterwards only placeholder auto-registration adds to it.
type Registry struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	builtins     map[string]Handler
	dir          string
	persistStubs bool
	log          logger.Logger
}

// New builds a registry and runs discovery once.
func New(ctx context.Context, opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]*entry),
		builtins: make(map[string]Handler),
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("skills")
	r.discover(ctx)
	return r
}

// discover snapshots built-ins and the skills directory. Directory problems
// are logged and leave only the built-ins.
func (r *Registry) discover(ctx context.Context) {
	for name, h := range r.builtins {
		r.entries[name] = &entry{handler: h, source: sourceBuiltin}
	}

	if r.dir != "" {
		if err := r.scan(ctx); err != nil {
			r.log.Error(ctx, "failed to scan skills directory",
				logger.String("dir", r.dir), logger.Error(err))
		}
	}

	names := r.Discovered()
	metrics.UpdateDiscoveredSkills(len(names))
	r.log.Info(ctx, "skills discovered", logger.Any("intents", names))
}

func (r *Registry) scan(ctx context.Context) error {
	files, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Warn(ctx, "skills directory does not exist", logger.String("dir", r.dir))
		return nil
	}
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != manifestExt {
			continue
		}
		name := strings.TrimSuffix(f.Name(), manifestExt)
		path := filepath.Join(r.dir, f.Name())

		e := &entry{source: path}
		data, err := os.ReadFile(path)
		if err == nil {
			var m Manifest
			m, err = ParseManifest(data)
			if err == nil {
				e.handler, err = m.handler(name)
			}
		}
		if err != nil {
			e.err = err
			r.log.Warn(ctx, "skill manifest cannot be resolved",
				logger.String("intent", name), logger.String("path", path), logger.Error(err))
		}
		if _, dup := r.entries[name]; dup {
			r.log.Debug(ctx, "manifest overrides built-in skill", logger.String("intent", name))
		}
		r.entries[name] = e
	}
	return nil
}

// Discovered returns the known intent names in sorted order.
func (r *Registry) Discovered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether intent has an entry, broken or not.
func (r *Registry) Has(intent string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[strings.TrimSpace(intent)]
	return ok
}

// Register installs h for intent, replacing any existing entry.
func (r *Registry) Register(intent string, h Handler) error {
	intent = strings.TrimSpace(intent)
	if intent == "" || h == nil {
		return fmt.Errorf("%w: empty intent or nil handler", ErrResolve)
	}
	r.mu.Lock()
	r.entries[intent] = &entry{handler: h, source: sourceBuiltin}
	n := len(r.entries)
	r.mu.Unlock()
	metrics.UpdateDiscoveredSkills(n)
	return nil
}

// Dispatch runs the handler for intent with payload. Unknown intents get a
// placeholder first. Any failure is logged and returned wrapped in
// ErrDispatch with a nil result; a handler panic is recovered.
func (r *Registry) Dispatch(ctx context.Context, intent, payload string) (*Result, error) {
	name := strings.TrimSpace(intent)
	if name == "" {
		return nil, r.fail(ctx, name, outcomeResolve, 0, fmt.Errorf("%w: empty intent name", ErrResolve))
	}

	e := r.lookupOrRegister(ctx, name)
	if e.err != nil {
		return nil, r.fail(ctx, name, outcomeResolve, 0, fmt.Errorf("%w: %s: %v", ErrResolve, e.source, e.err))
	}
	if e.handler == nil {
		return nil, r.fail(ctx, name, outcomeEntryPoint, 0, fmt.Errorf("%w: %s", ErrNoEntryPoint, e.source))
	}

	start := time.Now()
	res, err := invoke(ctx, e.handler, payload)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return nil, r.fail(ctx, name, outcomeHandler, elapsed, fmt.Errorf("%w: %v", ErrHandler, err))
	}
	if res.Intent == "" {
		res.Intent = name
	}
	if res.Placeholder {
		r.log.Info(ctx, res.Message, logger.String("intent", name))
	}
	metrics.RecordDispatch(outcomeOK, elapsed)
	return &res, nil
}

// lookupOrRegister returns the entry for name, installing a placeholder when
// absent. Repeated calls for the same name install it only once.
func (r *Registry) lookupOrRegister(ctx context.Context, name string) *entry {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	if e, ok = r.entries[name]; ok {
		r.mu.Unlock()
		return e
	}
	e = &entry{handler: Placeholder{Intent: name}, source: sourcePlaceholder}
	r.entries[name] = e
	n := len(r.entries)
	r.mu.Unlock()

	metrics.RecordPlaceholderRegistration()
	metrics.UpdateDiscoveredSkills(n)
	r.log.Warn(ctx, "no skill for intent, registered placeholder", logger.String("intent", name))

	if r.persistStubs && r.dir != "" {
		r.persistStub(ctx, name)
	}
	return e
}

func (r *Registry) persistStub(ctx context.Context, name string) {
	if !stubName.MatchString(name) {
		r.log.Warn(ctx, "intent name not safe for a stub file, kept in memory only", logger.String("intent", name))
		return
	}
	path, err := writePlaceholderManifest(r.dir, name)
	if err != nil {
		r.log.Error(ctx, "failed to persist placeholder manifest", logger.String("intent", name), logger.Error(err))
		return
	}
	r.log.Info(ctx, "placeholder manifest written", logger.String("intent", name), logger.String("path", path))
}

func (r *Registry) fail(ctx context.Context, intent, outcome string, elapsed float64, err error) error {
	err = fmt.Errorf("%w: intent %q: %w", ErrDispatch, intent, err)
	metrics.RecordDispatch(outcome, elapsed)
	metrics.RecordErrorByComponent("skill", outcome)
	r.log.Error(ctx, "skill dispatch failed", logger.String("intent", intent), logger.Error(err))
	return err
}

func invoke(ctx context.Context, h Handler, payload string) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h.Run(ctx, payload)
}
