// Package main the rand module as a Go plugin
//
//	go build -buildmode=plugin -o rand.so ./plugins/rand
//
// Import it by path or load it from the plugin directory:
//
//	import { Mt19937 } from "./rand.so";
package main

import (
	"github.com/shiroyk/embedjs/modules"
	"github.com/shiroyk/embedjs/modules/rand"
)

// JSInitModule returns the module of the plugin
func JSInitModule(string) (modules.Module, error) {
	return new(rand.Rand), nil
}

func main() {}
