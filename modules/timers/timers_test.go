package timers

import (
	"context"
	"testing"
	"time"

	"github.com/shiroyk/embedjs/js/modulestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		source string
		want   any
	}{
		{"timeout arguments", `
		export default () => new Promise((resolve) => setTimeout((a, b) => resolve(a + b), 0, 20, 22));`,
			int64(42)},
		{"timeout order", `
		export default () => new Promise((resolve) => {
			const seq = [];
			setTimeout(() => seq.push(2), 20);
			setTimeout(() => seq.push(1), 0);
			setTimeout(() => resolve(seq.join(",")), 50);
		});`,
			"1,2"},
		{"cleared timeout", `
		export default () => new Promise((resolve) => {
			let fired = false;
			clearTimeout(setTimeout(() => fired = true, 10));
			setTimeout(() => resolve(fired), 50);
		});`,
			false},
		{"interval", `
		export default () => new Promise((resolve) => {
			let ticks = 0;
			const id = setInterval((step) => {
				ticks += step;
				if (ticks === 3) {
					clearInterval(id);
					resolve(ticks);
				}
			}, 10, 1);
		});`,
			int64(3)},
		{"cleared interval", `
		export default () => new Promise((resolve) => {
			let ticks = 0;
			const id = setInterval(() => ticks++, 10);
			clearInterval(id);
			clearInterval(id);
			setTimeout(() => resolve(ticks), 50);
		});`,
			int64(0)},
		{"clear a fired timeout", `
		export default () => new Promise((resolve) => {
			let ran = false, id;
			setTimeout(() => {
				const end = Date.now() + 40;
				while (Date.now() < end) {}
				clearTimeout(id);
			}, 0);
			id = setTimeout(() => ran = true, 10);
			setTimeout(() => resolve(ran), 80);
		});`,
			false},
		{"clear a fired interval", `
		export default () => new Promise((resolve) => {
			let ticks = 0;
			const id = setInterval(() => ticks++, 10);
			setTimeout(() => {
				const end = Date.now() + 40;
				while (Date.now() < end) {}
				clearInterval(id);
				setTimeout(() => resolve(ticks), 40);
			}, 0);
		});`,
			int64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			vm := modulestest.New(t)
			result, err := vm.RunModule(ctx, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Export())
			assert.Empty(t, timersOf(vm.Runtime()).timers)
		})
	}
}

func TestTimersDelay(t *testing.T) {
	t.Parallel()
	vm := modulestest.New(t)
	result, err := vm.RunModule(context.Background(), `
	export default () => new Promise((resolve) => {
		const start = Date.now();
		setTimeout(() => resolve(Date.now() - start), 50);
	});`)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ToInteger(), int64(50))
}

func TestTimersInvalid(t *testing.T) {
	t.Parallel()
	vm := modulestest.New(t)
	for _, fn := range []string{"setTimeout", "setInterval"} {
		_, err := vm.RunString(context.Background(), fn+"('not a function')")
		assert.ErrorContains(t, err, fn+": first argument must be a function")
	}
}

func TestTimersCancel(t *testing.T) {
	t.Parallel()
	vm := modulestest.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := vm.RunModule(ctx, `
	export default () => new Promise((resolve) => setInterval(() => {}, 10));`)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
