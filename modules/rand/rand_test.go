package rand

import (
	"context"
	"math/big"
	mrand "math/rand/v2"
	"testing"

	"github.com/shiroyk/embedjs/js/modulestest"
	"github.com/shiroyk/embedjs/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	modules.Register("rand", new(Rand))
}

func TestMt19937(t *testing.T) {
	t.Parallel()

	t.Run("default seed", func(t *testing.T) {
		mt := NewMt19937(DefaultSeed)
		assert.Equal(t, uint32(3499211612), mt.Uint32())
		assert.Equal(t, uint32(581869302), mt.Uint32())
		assert.Equal(t, uint32(3890346734), mt.Uint32())
	})

	t.Run("10000th output", func(t *testing.T) {
		mt := NewMt19937(DefaultSeed)
		var v uint32
		for range 10000 {
			v = mt.Uint32()
		}
		assert.Equal(t, uint32(4123659995), v)
	})

	t.Run("seed", func(t *testing.T) {
		mt := NewMt19937(42)
		assert.Equal(t, uint32(1608637542), mt.Uint32())

		mt.Seed(42)
		assert.Equal(t, uint32(1608637542), mt.Uint32())
	})

	t.Run("source", func(t *testing.T) {
		a, b := NewMt19937(1), NewMt19937(1)
		r := mrand.New(a)
		hi, lo := b.Uint32(), b.Uint32()
		assert.Equal(t, uint64(hi)<<32|uint64(lo), r.Uint64())
	})
}

func TestRand(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("generate", func(t *testing.T) {
		vm := modulestest.New(t)
		result, err := vm.RunModule(ctx, `
		import { Mt19937 } from "rand";
		export default () => new Mt19937().generate();`)
		require.NoError(t, err)
		v, ok := result.Export().(*big.Int)
		require.True(t, ok, "generate should return a BigInt")
		assert.Equal(t, uint64(3499211612), v.Uint64())
	})

	tests := []struct {
		name   string
		source string
	}{
		{"bigint", `
		import { Mt19937 } from "rand";
		const mt = new Mt19937();
		assert.true(typeof mt.generate() === "bigint");`},
		{"seeded", `
		import { Mt19937 } from "rand";
		const mt = new Mt19937(42);
		assert.true(mt.generate() === 1608637542n);`},
		{"uint32 seed", `
		import { Mt19937 } from "rand";
		assert.true(new Mt19937(-1).generate() === new Mt19937(4294967295).generate());
		assert.true(new Mt19937(4294967296 + 42).generate() === 1608637542n);`},
		{"independent instances", `
		import { Mt19937 } from "rand";
		const a = new Mt19937(), b = new Mt19937();
		a.generate();
		assert.true(b.generate() === 3499211612n);
		assert.true(a.generate() !== 3499211612n);`},
		{"prototype", `
		import { Mt19937 } from "rand";
		const mt = new Mt19937();
		assert.true(mt instanceof Mt19937);
		assert.equal(Mt19937.name, "Mt19937");
		assert.equal(Object.prototype.toString.call(mt), "[object Mt19937]");
		assert.true(Object.getPrototypeOf(mt).generate === Mt19937.prototype.generate);`},
		{"default export", `
		import rand from "rand";
		assert.true(new rand.Mt19937().generate() === 3499211612n);`},
		{"require", `
		const { Mt19937 } = require("rand");
		assert.true(new Mt19937().generate() === 3499211612n);`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := modulestest.New(t)
			_, err := vm.RunModule(ctx, tt.source)
			assert.NoError(t, err)
		})
	}
}

func TestRandInvalid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		source string
		errMsg string
	}{
		{"float", `new Mt19937(1.5)`, "seed must be an integer"},
		{"string", `new Mt19937("1")`, "seed must be an integer"},
		{"bigint", `new Mt19937(1n)`, "seed must be an integer"},
		{"NaN", `new Mt19937(NaN)`, "seed must be an integer"},
		{"Infinity", `new Mt19937(Infinity)`, "seed must be an integer"},
		{"too many arguments", `new Mt19937(1, 2)`, "expected at most 1 argument"},
		{"receiver", `Mt19937.prototype.generate.call({})`, `"this" must be of type Mt19937`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := modulestest.New(t)
			_, err := vm.RunModule(ctx, `
			import { Mt19937 } from "rand";
			export default () => `+tt.source)
			require.Error(t, err)
			assert.ErrorContains(t, err, "TypeError")
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
