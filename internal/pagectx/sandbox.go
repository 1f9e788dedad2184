package pagectx

import (
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"

	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
)

// DefaultScriptTimeout bounds the execution of a single inline script.
const DefaultScriptTimeout = 500 * time.Millisecond

var identPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Sandbox resolves globals on a static page by running its inline scripts in a
// goja runtime with a minimal browser environment. Scripts run once, on the
// first lookup.
type Sandbox struct {
	url     string
	scripts []string
	timeout time.Duration

	once sync.Once
	mu   sync.Mutex
	vm   *goja.Runtime

	// captured before page scripts run, so pages cannot replace them
	getGlobal goja.Callable
	stringify goja.Callable
}

// NewSandbox prepares a sandbox for the given inline scripts.
func NewSandbox(pageURL string, scripts []string, timeout time.Duration) *Sandbox {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	return &Sandbox{url: pageURL, scripts: scripts, timeout: timeout}
}

// Lookup returns window[name] as a JSON-like value.
func (s *Sandbox) Lookup(name string) (any, bool) {
	s.once.Do(s.run)

	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.arm()()

	if s.getGlobal == nil {
		return nil, false
	}
	val, err := s.getGlobal(goja.Undefined(), s.vm.ToValue(name))
	if err != nil {
		log.Trace().Str("global", name).Err(err).Msg("Global lookup failed in sandbox")
		return nil, false
	}
	if isAbsent(val) && identPattern.MatchString(name) {
		// top-level let/const bindings are not window properties
		if v, err := s.vm.RunString("typeof " + name + " !== 'undefined' ? " + name + " : undefined"); err == nil {
			val = v
		}
	}
	if isAbsent(val) {
		return nil, false
	}
	return s.export(val)
}

// arm interrupts the runtime after the script timeout; the returned func
// disarms it.
func (s *Sandbox) arm() func() {
	vm := s.vm
	timer := time.AfterFunc(s.timeout, func() { vm.Interrupt("script timeout") })
	return func() {
		timer.Stop()
		vm.ClearInterrupt()
	}
}

func (s *Sandbox) export(val goja.Value) (any, bool) {
	if s.stringify == nil {
		return nil, false
	}
	out, err := s.stringify(goja.Undefined(), val)
	if err != nil || isAbsent(out) {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(out.String()), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func (s *Sandbox) run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	vm := goja.New()
	s.vm = vm
	s.installBrowserEnv()
	s.captureHelpers()

	failed := 0
	for i, script := range s.scripts {
		if script == "" {
			continue
		}
		disarm := s.arm()
		_, err := vm.RunString(script)
		disarm()
		if err != nil {
			// most page scripts expect a real DOM
			failed++
			log.Trace().Int("script", i).Err(err).Msg("Inline script failed in sandbox")
		}
	}

	log.Debug().
		Str("url", s.url).
		Int("scripts", len(s.scripts)).
		Int("failed", failed).
		Msg("Sandbox evaluated inline scripts")
}

// captureHelpers binds window[name] and JSON.stringify as callables so
// getters and toJSON hooks run under the interrupt timer and surface as errors.
func (s *Sandbox) captureHelpers() {
	if v, err := s.vm.RunString(`(function (g) { return function (n) { return g[n]; }; })(this)`); err == nil {
		s.getGlobal, _ = goja.AssertFunction(v)
	}
	if v, err := s.vm.RunString(`JSON.stringify`); err == nil {
		s.stringify, _ = goja.AssertFunction(v)
	}
}

// installBrowserEnv mocks just enough of a browser to let data assignments run.
func (s *Sandbox) installBrowserEnv() {
	vm := s.vm
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	null := func(goja.FunctionCall) goja.Value { return goja.Null() }

	location := map[string]interface{}{
		"href":     s.url,
		"hostname": urlutil.Host(s.url),
	}

	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("globalThis", vm.GlobalObject())
	vm.Set("location", location)
	vm.Set("navigator", map[string]interface{}{"userAgent": "Mozilla/5.0", "language": "zh-CN"})
	vm.Set("document", map[string]interface{}{
		"location":         location,
		"cookie":           "",
		"getElementById":   null,
		"querySelector":    null,
		"querySelectorAll": func(goja.FunctionCall) goja.Value { return vm.NewArray() },
		"createElement":    func(goja.FunctionCall) goja.Value { return vm.NewObject() },
		"addEventListener": noop,
		"write":            noop,
	})
	vm.Set("console", map[string]interface{}{
		"log":   noop,
		"warn":  noop,
		"error": noop,
		"info":  noop,
	})
	vm.Set("addEventListener", noop)
	vm.Set("setTimeout", noop)
	vm.Set("setInterval", noop)
	vm.Set("clearTimeout", noop)
}

func isAbsent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
