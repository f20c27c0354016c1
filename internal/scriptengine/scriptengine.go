// Package scriptengine runs a model's JavaScript handler in an embedded
// goja sandbox: the module is loaded and its optional init_file run exactly
// once per snapshot (internal/snapshot's script cache enforces that), then
// `handle(input)` is invoked per request under a hard wall-clock deadline.
//
// Grounded almost directly on the teacher's
// internal/service/workflow/goja.go (SetupGojaVM, the BodyWrapper-less
// convenience globals, the HTTP helpers) and nodes/script.go (val.Export()
// to read the result back into Go). Unlike nodes/script.go, scripts are not
// wrapped in an IIFE: each script defines a global `handle` function.
package scriptengine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/rakunlabs/mockllm/internal/apierr"
)

// Module is a compiled script model: one goja.Runtime holding whatever
// init_file published plus the handle function, reused across requests for
// the model within a single snapshot's lifetime. Per spec.md §4.4's
// "synchronous from the request's viewpoint... a queue serializes script
// executions per process" requirement, invokeMu serializes calls into this
// VM (goja.Runtime is not safe for concurrent use regardless).
type Module struct {
	invokeMu sync.Mutex
	vm       *goja.Runtime
	handle   goja.Callable
}

// Load reads file (and, once, initFile) rooted at scriptsDir, sets up the
// sandbox globals, and resolves the `handle` entry point. It runs lazily on
// a model's first request within a snapshot (per spec.md §3's "script
// modules resolved lazily... per snapshot"), so errors here surface on that
// request, not at reload time.
func Load(scriptsDir string, file, initFile string) (*Module, error) {
	vm := goja.New()
	if err := registerGlobals(vm); err != nil {
		return nil, fmt.Errorf("scriptengine: register globals: %w", err)
	}

	if initFile != "" {
		src, err := readScriptSource(scriptsDir, initFile)
		if err != nil {
			return nil, fmt.Errorf("scriptengine: init_file: %w", err)
		}
		if _, err := vm.RunString(src); err != nil {
			return nil, fmt.Errorf("scriptengine: init_file execution: %w", err)
		}
	}

	src, err := readScriptSource(scriptsDir, file)
	if err != nil {
		return nil, fmt.Errorf("scriptengine: file: %w", err)
	}
	if _, err := vm.RunString(src); err != nil {
		return nil, fmt.Errorf("scriptengine: file execution: %w", err)
	}

	handleVal := vm.Get("handle")
	if handleVal == nil || goja.IsUndefined(handleVal) {
		return nil, fmt.Errorf("scriptengine: %s does not define a handle(input) function", file)
	}
	handle, ok := goja.AssertFunction(handleVal)
	if !ok {
		return nil, fmt.Errorf("scriptengine: %s's handle is not callable", file)
	}

	return &Module{vm: vm, handle: handle}, nil
}

func readScriptSource(scriptsDir, name string) (string, error) {
	path := filepath.Join(scriptsDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Invoke calls handle(input) under a hard wall-clock deadline of timeout.
// On timeout the goja runtime is interrupted and Invoke returns an
// *apierr.Error with Kind == apierr.ScriptTimeout. A thrown JS error
// surfaces as Kind == apierr.ScriptError with the thrown value's message.
func (m *Module) Invoke(input map[string]any, timeout time.Duration) (out Output, apiErr *apierr.Error) {
	m.invokeMu.Lock()
	defer m.invokeMu.Unlock()

	// A prior call may have left the runtime interrupted (goja does not
	// clear this on its own), which would otherwise make every call after
	// the first timeout panic immediately.
	m.vm.ClearInterrupt()

	timer := time.AfterFunc(timeout, func() {
		m.vm.Interrupt("script_timeout")
	})
	defer timer.Stop()

	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*goja.InterruptedError); ok {
				_ = ie
				apiErr = apierr.New(apierr.ScriptTimeout, "script exceeded its timeout")
				return
			}
			apiErr = apierr.New(apierr.ScriptError, "script panicked: %v", r)
		}
	}()

	val, err := m.handle(goja.Undefined(), m.vm.ToValue(input))
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			return Output{}, apierr.New(apierr.ScriptError, "%v", exc.Value().Export())
		}
		if _, ok := err.(*goja.InterruptedError); ok {
			return Output{}, apierr.New(apierr.ScriptTimeout, "script exceeded its timeout")
		}
		return Output{}, apierr.New(apierr.ScriptError, "%v", err)
	}

	return parseOutput(val.Export())
}
