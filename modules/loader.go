package modules

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/grafana/sobek"
	"github.com/grafana/sobek/parser"
)

var (
	// ErrInvalidModule module is invalid
	ErrInvalidModule = errors.New("invalid module")
	// ErrIllegalModuleName module name is illegal
	ErrIllegalModuleName = errors.New("illegal module name")
	// ErrNotFoundModule not found module
	ErrNotFoundModule = errors.New("not found module")
	// ErrNativeDisabled a native addon was imported but no NativeLoader is configured
	ErrNativeDisabled = errors.New("native module loading is not enabled")
)

type (
	// Loader the js module loader.
	Loader interface {
		// CompileModule compile module from source string (cjs/esm).
		CompileModule(name, source string) (sobek.CyclicModuleRecord, error)
		// ResolveModule resolve the module returns the sobek.ModuleRecord.
		ResolveModule(any, string) (sobek.ModuleRecord, error)
		// EnableRequire enable the global function require to the sobek.Runtime.
		EnableRequire(*sobek.Runtime) Loader
		// EnableImportModuleDynamically sobek runtime SetImportModuleDynamically
		EnableImportModuleDynamically(*sobek.Runtime) Loader
	}

	// Option the new Loader options.
	Option func(*loader)

	// FileLoader returns the contents of the file, name is the base name of the file.
	FileLoader func(specifier *url.URL, name string) ([]byte, error)

	// NativeLoader opens a compiled addon (a Go plugin) at path and
	// returns the module it provides, name is the file base name without extension.
	NativeLoader func(path, name string) (Module, error)
)

// WithBase the base directory of module loader.
func WithBase(base *url.URL) Option {
	return func(o *loader) { o.base = base }
}

// WithFileLoader the file loader of module loader.
func WithFileLoader(fl FileLoader) Option {
	return func(o *loader) { o.readFile = fl }
}

// WithNativeLoader enables importing "*.so" addons.
func WithNativeLoader(nl NativeLoader) Option {
	return func(o *loader) { o.openAddon = nl }
}

// WithSourceMapLoader the source map loader of module loader.
func WithSourceMapLoader(fn func(path string) ([]byte, error)) Option {
	return func(o *loader) { o.sourceMap = parser.WithSourceMapLoader(fn) }
}

// NewLoader returns a new module loader,
// the file loader defaults to DefaultFileLoader with http.DefaultClient.
func NewLoader(opts ...Option) Loader {
	ml := &loader{
		compiled: make(map[string]compiled),
		native:   make(map[string]sobek.CyclicModuleRecord),
		dirs:     make(map[sobek.ModuleRecord]*url.URL),
	}
	for _, option := range opts {
		option(ml)
	}
	if ml.base == nil {
		ml.base = &url.URL{Scheme: "file", Path: "."}
	}
	if ml.readFile == nil {
		ml.readFile = DefaultFileLoader(http.DefaultClient.Do)
	}
	if ml.sourceMap == nil {
		ml.sourceMap = parser.WithDisableSourceMaps
	}
	return ml
}

// DefaultFileLoader reads file URLs from disk and fetches http(s) URLs with fetch.
func DefaultFileLoader(fetch func(*http.Request) (*http.Response, error)) FileLoader {
	return func(specifier *url.URL, _ string) ([]byte, error) {
		switch specifier.Scheme {
		case "file":
			return os.ReadFile(filepath.FromSlash(specifier.Path))
		case "http", "https":
			req, err := http.NewRequest(http.MethodGet, specifier.String(), nil)
			if err != nil {
				return nil, err
			}
			res, err := fetch(req)
			if err != nil {
				return nil, err
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("fetch %s: unexpected status %s", specifier, res.Status)
			}
			return io.ReadAll(res.Body)
		default:
			return nil, fmt.Errorf("scheme not supported %s", specifier.Scheme)
		}
	}
}

// loader loads ES modules, CommonJS modules, JSON files and native modules,
// the records are shared by every runtime using the loader.
type loader struct {
	mu       sync.Mutex
	compiled map[string]compiled                 // by file URL
	native   map[string]sobek.CyclicModuleRecord // by name or addon path
	dirs     map[sobek.ModuleRecord]*url.URL     // directory of each compiled file

	base      *url.URL
	readFile  FileLoader
	openAddon NativeLoader
	sourceMap parser.Option
}

type compiled struct {
	mod sobek.CyclicModuleRecord
	err error
}

// EnableRequire enable the global function require to the sobek.Runtime.
func (ml *loader) EnableRequire(rt *sobek.Runtime) Loader {
	_ = rt.Set("require", ml.require)
	return ml
}

// EnableImportModuleDynamically sobek runtime SetImportModuleDynamically
func (ml *loader) EnableImportModuleDynamically(rt *sobek.Runtime) Loader {
	rt.SetImportModuleDynamically(func(referrer any, specifier sobek.Value, capability any) {
		mod, err := ml.ResolveModule(referrer, specifier.String())
		rt.FinishLoadingImportModule(referrer, specifier, capability, mod, err)
	})
	return ml
}

// require evaluates the module on first use and returns its exports,
// the namespace object for ES modules.
func (ml *loader) require(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
	mod, err := ml.ResolveModule(ml.caller(rt), call.Argument(0).String())
	if err != nil {
		panic(rt.NewGoError(err))
	}

	if rt.GetModuleInstance(mod) == nil {
		cm, ok := mod.(sobek.CyclicModuleRecord)
		if !ok {
			panic(rt.NewGoError(ErrInvalidModule))
		}
		if err = cm.Link(); err != nil {
			panic(rt.NewGoError(err))
		}
		promise := rt.CyclicModuleRecordEvaluate(cm, ml.ResolveModule)
		if promise.State() == sobek.PromiseStateRejected {
			panic(promise.Result())
		}
	}

	if cjs, ok := mod.(*commonJS); ok {
		return rt.GetModuleInstance(cjs).(*commonJSInstance).exports
	}
	return rt.NamespaceObjectFor(mod)
}

// caller the module record of the script calling require, nil for a
// classic script.
func (ml *loader) caller(rt *sobek.Runtime) sobek.ModuleRecord {
	frames := rt.CaptureCallStack(2, nil)
	if len(frames) < 2 {
		return nil
	}
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.compiled[frames[1].SrcName()].mod
}

// CompileModule compiles JSON files as CommonJS, other sources as an ES
// module when they have import/export statements or top-level await,
// otherwise as CommonJS.
func (ml *loader) CompileModule(name, source string) (sobek.CyclicModuleRecord, error) {
	if path.Ext(name) == ".json" {
		return ml.compileCommonJS(name, "module.exports = JSON.parse('"+template.JSEscapeString(source)+"')")
	}

	ast, err := sobek.Parse(name, source, parser.IsModule, ml.sourceMap)
	if err != nil {
		return nil, err
	}
	if len(ast.ImportEntries) == 0 && len(ast.ExportEntries) == 0 && !ast.HasTLA {
		return ml.compileCommonJS(name, source)
	}
	return sobek.ModuleFromAST(ast, ml.ResolveModule)
}

func (ml *loader) compileCommonJS(name, source string) (sobek.CyclicModuleRecord, error) {
	ast, err := sobek.Parse(name, "(function(exports, require, module) {"+source+"\n})", ml.sourceMap)
	if err != nil {
		return nil, err
	}
	prg, err := sobek.CompileAST(ast, false)
	if err != nil {
		return nil, err
	}
	return &commonJS{prg: prg}, nil
}

// load compiles the file once, the result and the error are cached.
func (ml *loader) load(file *url.URL) (sobek.ModuleRecord, error) {
	key := file.String()
	ml.mu.Lock()
	c, ok := ml.compiled[key]
	ml.mu.Unlock()
	if ok {
		return c.mod, c.err
	}

	data, err := ml.readFile(file, path.Base(file.Path))
	if err != nil {
		return nil, err
	}
	mod, err := ml.CompileModule(key, string(data))

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if err == nil {
		dir := *file
		dir.Path = path.Dir(file.Path)
		ml.dirs[mod] = &dir
	}
	ml.compiled[key] = compiled{mod, err}
	return mod, err
}

// dirOf the directory relative specifiers of the referrer are resolved against.
func (ml *loader) dirOf(referrer any) *url.URL {
	if mod, ok := referrer.(sobek.ModuleRecord); ok && mod != nil {
		ml.mu.Lock()
		defer ml.mu.Unlock()
		if dir, ok := ml.dirs[mod]; ok {
			return dir
		}
	}
	return ml.base
}
