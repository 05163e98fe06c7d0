//go:build windows

package plugin

import (
	"errors"

	"github.com/shiroyk/embedjs/modules"
)

var errUnsupported = errors.New("plugin are only supported on Linux, FreeBSD, and macOS. see https://pkg.go.dev/plugin")

// Open is unsupported on windows.
func Open(_, _ string) (modules.Module, error) { return nil, errUnsupported }

// LoadDir is unsupported on windows.
func LoadDir(_ string) (int, error) { return 0, errUnsupported }
