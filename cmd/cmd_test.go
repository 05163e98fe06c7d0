package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shiroyk/embedjs/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVM() (js.VM, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	vm := js.NewVM(js.WithStrict(true), js.WithStdout(stdout), js.WithStderr(stderr))
	return vm, stdout, stderr
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	return exit.code
}

func TestEval(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name           string
		exprs          []string
		stdout, stderr string
		code           int
	}{
		{
			name:   "expressions",
			exprs:  []string{"1 + 2", `"a" + "b"`, "[1, 2]", "({})"},
			stdout: "3\nab\n1,2\n[object Object]\n",
		},
		{
			name:   "shared scope",
			exprs:  []string{"var a = 40", "a + 2"},
			stdout: "42\n",
		},
		{
			name:   "console",
			exprs:  []string{`console.log("out", 1)`, `console.error("err", true)`},
			stdout: "out 1\n",
			stderr: "err true\n",
		},
		{
			name:   "stop at exception",
			exprs:  []string{"1", `throw new Error("boom")`, "2"},
			stdout: "1\n",
			stderr: "Error: boom\n",
			code:   1,
		},
		{
			name:   "strict",
			exprs:  []string{"undeclared = 1"},
			stderr: "ReferenceError: undeclared is not defined\n",
			code:   1,
		},
		{
			name:   "syntax error",
			exprs:  []string{"1 +"},
			code:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, stdout, stderr := newTestVM()
			err := eval(ctx, vm, stdout, stderr, tt.exprs)
			if tt.code != 0 {
				assert.Equal(t, tt.code, exitCode(t, err))
				assert.NotEmpty(t, stderr.String())
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.stdout, stdout.String())
			if tt.stderr != "" {
				assert.Equal(t, tt.stderr, stderr.String())
			}
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	write("seed.js", `export const seed = 42;`)
	main := write("main.js", `
		import { Mt19937 } from "rand";
		import { seed } from "./seed.js";
		const mt = new Mt19937(seed);
		console.log(mt.generate());
		export default () => new Mt19937().generate();`)
	plain := write("plain.js", `
		import { Mt19937 } from "rand";
		console.log(String(new Mt19937().generate()));
		export default 1;`)
	async := write("async.js", `
		export default () => new Promise((resolve) => setTimeout(resolve, 10, "done"));`)
	throws := write("throws.js", `
		import { Mt19937 } from "rand";
		new Mt19937("seed");`)

	t.Run("module", func(t *testing.T) {
		vm, stdout, _ := newTestVM()
		require.NoError(t, run(ctx, vm, stdout, nil, []string{main, plain}))
		assert.Equal(t, "1608637542\n3499211612\n3499211612\n", stdout.String())
	})

	t.Run("async", func(t *testing.T) {
		vm, stdout, _ := newTestVM()
		require.NoError(t, run(ctx, vm, stdout, nil, []string{async}))
		assert.Equal(t, "done\n", stdout.String())
	})

	t.Run("exception", func(t *testing.T) {
		vm, stdout, stderr := newTestVM()
		err := run(ctx, vm, stdout, stderr, []string{throws, main})
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, stderr.String(), "TypeError")
		assert.Empty(t, stdout.String())
	})

	t.Run("not exists", func(t *testing.T) {
		vm, stdout, stderr := newTestVM()
		err := run(ctx, vm, stdout, stderr, []string{filepath.Join(dir, "none.js")})
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, stderr.String(), "not found module")
		assert.Contains(t, stderr.String(), "none.js")
		assert.NotContains(t, stderr.String(), "index.js")
	})
}

func TestCall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name, source, fn string
		args             []string
		stdout           string
		code             int
	}{
		{"default", defaultSource, defaultFunc, []string{"5", "3"}, "Result: 8\n", 0},
		{"float", defaultSource, defaultFunc, []string{"1.5", "2.7"}, "Result: 4\n", 0},
		{"wrap", defaultSource, defaultFunc, []string{"2147483647", "1"}, "Result: -2147483648\n", 0},
		{"string", defaultSource, defaultFunc, []string{"1", "a"}, "Result: 0\n", 0},
		{"boolean", `function not(v) { return v ? 0 : 1 }`, "not", []string{"false"}, "Result: 1\n", 0},
		{"source error", `function (`, defaultFunc, nil, "", 255},
		{"not a function", `var foo = 1`, defaultFunc, nil, "", 1},
		{"throws", `function foo() { throw new Error("boom") }`, defaultFunc, nil, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, stdout, stderr := newTestVM()
			err := call(ctx, vm, stdout, stderr, tt.source, tt.fn, tt.args)
			if tt.code != 0 {
				assert.Equal(t, tt.code, exitCode(t, err))
				assert.NotEmpty(t, stderr.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stdout, stdout.String())
		})
	}
}

func TestMarshalArg(t *testing.T) {
	assert.Equal(t, int64(5), marshalArg("5"))
	assert.Equal(t, int64(-3), marshalArg("-3"))
	assert.Equal(t, int64(10), marshalArg("010"), "leading zero is decimal")
	assert.Equal(t, "0x10", marshalArg("0x10"))
	assert.Equal(t, 1.5, marshalArg("1.5"))
	assert.Equal(t, true, marshalArg("true"))
	assert.Equal(t, "abc", marshalArg("abc"))
}

func TestBaseURL(t *testing.T) {
	dir := t.TempDir()
	base, err := baseURL(dir)
	require.NoError(t, err)
	assert.Equal(t, "file", base.Scheme)
	assert.Equal(t, filepath.ToSlash(dir)+"/", base.Path)
}

func TestWriteDiskConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, writeDiskConfig(path))
	assert.FileExists(t, path)
	assert.Error(t, writeDiskConfig(path))
}
