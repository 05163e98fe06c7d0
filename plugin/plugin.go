// Package plugin loads native modules from Go plugins
//
// A plugin is a package main built with -buildmode=plugin which exports:
//
//	func JSInitModule(name string) (modules.Module, error)
//
// The plugin must be built with the same module versions as the host.
package plugin

import (
	"errors"

	"github.com/shiroyk/embedjs/modules"
)

// Symbol the exported function name looked up in a plugin
const Symbol = "JSInitModule"

// ErrPluginSymbol the plugin does not export a valid Symbol
var ErrPluginSymbol = errors.New("plugin symbol " + Symbol + " must be func(string) (modules.Module, error)")

// InitFunc the signature of the Symbol
type InitFunc = func(name string) (modules.Module, error)

// Options the plugin options
type Options struct {
	// Dir the plugins directory, every *.so file is loaded on start
	Dir string `yaml:"dir"`
}
