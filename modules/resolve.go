package modules

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/grafana/sobek"
)

// ResolveModule resolves the specifier imported by the referrer, in order:
// registered native modules, "*.so" addons, absolute and relative paths,
// URLs, then the node_modules directories from the referrer up.
func (ml *loader) ResolveModule(referrer any, specifier string) (sobek.ModuleRecord, error) {
	if mod, ok := ml.registered(specifier); ok {
		return mod, nil
	}

	dir := ml.dirOf(referrer)
	switch {
	case specifier == "":
		return nil, ErrIllegalModuleName
	case strings.HasSuffix(specifier, ".so"):
		return ml.addon(dir, specifier)
	case isAbsPath(specifier):
		return ml.lookupPath(&url.URL{Scheme: "file", Path: "/"}, filepath.ToSlash(specifier), specifier)
	case isBasePath(specifier):
		return ml.lookupPath(dir, specifier, specifier)
	case strings.Contains(specifier, "://"):
		u, err := url.Parse(specifier)
		if err != nil {
			return nil, err
		}
		return ml.load(u)
	}

	for _, nm := range nodeModules(dir) {
		mod, err := ml.lookup(nm, specifier)
		if err == nil || isSyntaxError(err) {
			return mod, err
		}
	}
	return nil, fmt.Errorf("%w %s at %s", ErrNotFoundModule, specifier, dir)
}

func (ml *loader) registered(name string) (sobek.CyclicModuleRecord, bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if mod, ok := ml.native[name]; ok {
		return mod, true
	}
	mod, ok := Get(name)
	if !ok {
		return nil, false
	}
	rec := &native{mod: mod}
	ml.native[name] = rec
	return rec, true
}

// addon opens the native addon relative to dir, it is cached by the file path.
func (ml *loader) addon(dir *url.URL, specifier string) (sobek.ModuleRecord, error) {
	if ml.openAddon == nil {
		return nil, fmt.Errorf("%w: %s", ErrNativeDisabled, specifier)
	}
	file := filepath.Clean(specifier)
	if !isAbsPath(specifier) {
		if dir.Scheme != "file" {
			return nil, fmt.Errorf("native module %s must be a local file", specifier)
		}
		file = filepath.FromSlash(dir.JoinPath(specifier).Path)
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if mod, ok := ml.native[file]; ok {
		return mod, nil
	}
	mod, err := ml.openAddon(file, strings.TrimSuffix(filepath.Base(file), ".so"))
	if err != nil {
		return nil, err
	}
	rec := &native{mod: mod}
	ml.native[file] = rec
	return rec, nil
}

// lookup loads the specifier as a file, then as a directory,
// a syntax error stops the lookup.
func (ml *loader) lookup(dir *url.URL, specifier string) (sobek.ModuleRecord, error) {
	target := dir.JoinPath(specifier)
	mod, err := ml.first(withExtensions(target))
	if err == nil || isSyntaxError(err) {
		return mod, err
	}
	return ml.first(append(ml.packageMain(target), target.JoinPath("index.js")))
}

// lookupPath looks up a path specifier, a miss is reported
// for the specifier rather than for the last file tried.
func (ml *loader) lookupPath(dir *url.URL, p, specifier string) (sobek.ModuleRecord, error) {
	mod, err := ml.lookup(dir, p)
	if err == nil || isSyntaxError(err) {
		return mod, err
	}
	return nil, fmt.Errorf("%w %s at %s", ErrNotFoundModule, specifier, dir)
}

func (ml *loader) first(files []*url.URL) (mod sobek.ModuleRecord, err error) {
	for _, file := range files {
		if mod, err = ml.load(file); err == nil || isSyntaxError(err) {
			return
		}
	}
	return
}

// packageMain the files of the package.json main of the directory.
func (ml *loader) packageMain(dir *url.URL) []*url.URL {
	data, err := ml.readFile(dir.JoinPath("package.json"), "package.json")
	if err != nil {
		return nil
	}
	var pkg struct {
		Main string `json:"main"`
	}
	if json.Unmarshal(data, &pkg) != nil || pkg.Main == "" {
		return nil
	}
	return withExtensions(dir.JoinPath(pkg.Main))
}

// withExtensions the file itself, then with ".js" and ".json".
func withExtensions(file *url.URL) []*url.URL {
	withJS, withJSON := *file, *file
	withJS.Path += ".js"
	withJSON.Path += ".json"
	return []*url.URL{file, &withJS, &withJSON}
}

// nodeModules the node_modules directories from dir up to the root.
func nodeModules(dir *url.URL) []*url.URL {
	var dirs []*url.URL
	for p := dir.Path; ; {
		nm := *dir
		nm.Path = path.Join(p, "node_modules")
		dirs = append(dirs, &nm)

		parent := path.Dir(p)
		if p == ".." || parent == p { // Dir("..") is "."
			return dirs
		}
		p = parent
	}
}

func isAbsPath(p string) bool {
	return path.IsAbs(p) || (runtime.GOOS == "windows" && filepath.IsAbs(p))
}

func isBasePath(p string) bool {
	if p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		return true
	}
	return runtime.GOOS == "windows" && (strings.HasPrefix(p, `.\`) || strings.HasPrefix(p, `..\`))
}

func isSyntaxError(err error) bool {
	var syntaxErr *sobek.CompilerSyntaxError
	return errors.As(err, &syntaxErr)
}
