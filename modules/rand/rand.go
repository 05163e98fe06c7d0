// Package rand the Mt19937 pseudo-random generator class
//
//	import { Mt19937 } from "rand";
//	const mt = new Mt19937(42);
//	mt.generate(); // 1608637542n
package rand

import (
	"math"
	"math/big"
	"reflect"
	"runtime"
	"sync/atomic"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/js"
)

// Rand the native module which exports the Mt19937 class.
// It is not registered by default, register it with the name to import:
//
//	modules.Register("rand", new(rand.Rand))
type Rand struct{}

// Instantiate module
func (r *Rand) Instantiate(rt *sobek.Runtime) (sobek.Value, error) {
	proto := r.prototype(rt)
	ctor := rt.ToValue(r.constructor).(*sobek.Object)
	_ = proto.DefineDataProperty("constructor", ctor, sobek.FLAG_FALSE, sobek.FLAG_FALSE, sobek.FLAG_FALSE)
	_ = ctor.Set("prototype", proto)
	_ = ctor.DefineDataProperty("name", rt.ToValue("Mt19937"), sobek.FLAG_FALSE, sobek.FLAG_FALSE, sobek.FLAG_TRUE)

	ret := rt.NewObject()
	_ = ret.Set("Mt19937", ctor)
	return ret, nil
}

func (r *Rand) prototype(rt *sobek.Runtime) *sobek.Object {
	p := rt.NewObject()
	_ = p.Set("generate", r.generate)
	_ = p.SetSymbol(sobek.SymToStringTag, rt.ToValue("Mt19937"))
	return p
}

func (*Rand) constructor(call sobek.ConstructorCall, rt *sobek.Runtime) *sobek.Object {
	seed := DefaultSeed
	switch len(call.Arguments) {
	case 0:
	case 1:
		s, ok := toSeed(call.Argument(0))
		if !ok {
			panic(rt.NewTypeError("Mt19937: seed must be an integer, got %s", call.Argument(0).String()))
		}
		seed = s
	default:
		panic(rt.NewTypeError("Mt19937: expected at most 1 argument, got %d", len(call.Arguments)))
	}

	g := &generator{id: ids.Add(1), mt: NewMt19937(seed)}
	logger := js.Logger(js.Context(rt))
	logger.Debug("mt19937 created", "id", g.id, "seed", seed)
	runtime.AddCleanup(g, func(id uint64) { logger.Debug("mt19937 released", "id", id) }, g.id)

	obj := rt.ToValue(g).(*sobek.Object)
	_ = obj.SetPrototype(call.This.Prototype())
	return obj
}

func (*Rand) generate(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
	g := toGenerator(rt, call.This)
	return rt.ToValue(new(big.Int).SetUint64(uint64(g.mt.Uint32())))
}

// toSeed accepts an integral Number and reduces it with ToUint32.
func toSeed(value sobek.Value) (uint32, bool) {
	switch v := value.Export().(type) {
	case int64:
		return uint32(v), true
	case float64:
		if math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return js.ToUint32(value), true
	default:
		return 0, false
	}
}

var (
	ids           atomic.Uint64
	typeGenerator = reflect.TypeOf((*generator)(nil))
)

type generator struct {
	id uint64
	mt *Mt19937
}

func toGenerator(rt *sobek.Runtime, value sobek.Value) *generator {
	if value.ExportType() == typeGenerator {
		return value.Export().(*generator)
	}
	panic(rt.NewTypeError(`Value of "this" must be of type Mt19937`))
}
