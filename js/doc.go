// Package js embeds the sobek JavaScript engine.
//
// Evaluate scripts sharing the same global scope:
//
//	vm := js.NewVM(js.WithStrict(true))
//	for _, expr := range []string{"var a = 1", "a + 1"} {
//		value, err := vm.RunString(context.Background(), expr)
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println(value) // undefined, 2
//	}
//
// Run ESM/CJS modules importing native modules:
//
//	modules.Register("rand", new(rand.Rand))
//
//	module, err := js.CompileModule("main.js", `
//		import { Mt19937 } from "rand";
//		export default () => new Mt19937().generate();
//	`)
//	if err != nil {
//		panic(err)
//	}
//
//	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
//	defer cancel()
//
//	value, err := js.RunModule(ctx, module)
//	if err != nil {
//		panic(err)
//	}
//	fmt.Println(value) // 3499211612
package js
