//go:build unix

package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/shiroyk/embedjs/modules"
)

// Open the plugin at path and initialize its module with name.
// It can be used as the modules.NativeLoader.
func Open(path, name string) (modules.Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(Symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrPluginSymbol)
	}
	var initFn InitFunc
	switch fn := sym.(type) {
	case InitFunc:
		initFn = fn
	case *InitFunc:
		initFn = *fn
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrPluginSymbol)
	}
	mod, err := initFn(name)
	if err != nil {
		return nil, fmt.Errorf("init plugin %s: %w", path, err)
	}
	if mod == nil {
		return nil, fmt.Errorf("init plugin %s: %w", path, modules.ErrInvalidModule)
	}
	return mod, nil
}

// LoadDir opens every *.so plugin in dir and registers its module
// with the file base name, e.g. rand.so is registered as "rand".
func LoadDir(dir string) (size int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return size, err
	}
	loadErr := make([]error, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".so" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".so")
		mod, err := Open(filepath.Join(dir, entry.Name()), name)
		if err != nil {
			loadErr = append(loadErr, fmt.Errorf("error opening %s: %w", entry.Name(), err))
			continue
		}
		modules.Register(name, mod)
		size++
	}
	return size, errors.Join(loadErr...)
}
