// Package timers the global setTimeout and setInterval functions
package timers

import (
	"time"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/js"
	"github.com/shiroyk/embedjs/modules"
)

func init() {
	modules.Register("timers", new(Timers))
}

// Timers implements JavaScript timer functions,
// the callbacks are executed on the event loop of the VM.
type Timers struct{}

// Global mark as global module
func (*Timers) Global() {}

// Instantiate set the timer functions to the global object
func (t *Timers) Instantiate(rt *sobek.Runtime) (sobek.Value, error) {
	_ = rt.GlobalObject().DefineDataPropertySymbol(symTimers, rt.ToValue(&registry{timers: make(map[int64]*timer)}),
		sobek.FLAG_FALSE, sobek.FLAG_FALSE, sobek.FLAG_FALSE)
	_ = rt.Set("setTimeout", t.setTimeout)
	_ = rt.Set("clearTimeout", t.clear)
	_ = rt.Set("setInterval", t.setInterval)
	_ = rt.Set("clearInterval", t.clear)
	return nil, nil
}

func (t *Timers) setTimeout(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
	return t.schedule("setTimeout", false, call, rt)
}

func (t *Timers) setInterval(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
	return t.schedule("setInterval", true, call, rt)
}

func (*Timers) schedule(fn string, repeat bool, call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
	callback, ok := sobek.AssertFunction(call.Argument(0))
	if !ok {
		panic(rt.NewTypeError("%s: first argument must be a function", fn))
	}

	delay := max(time.Duration(call.Argument(1).ToInteger())*time.Millisecond, 0)
	if repeat && delay == 0 {
		delay = time.Millisecond
	}

	var args []sobek.Value
	if len(call.Arguments) > 2 {
		args = call.Arguments[2:]
	}

	ctx := js.Context(rt)
	loop := js.Loop(rt)
	enqueue := loop.EnqueueJob()
	t := timersOf(rt).add(delay, repeat)

	go func() {
		for {
			select {
			case <-t.C():
				if !repeat {
					enqueue(func() error {
						if t.cleared() {
							return nil
						}
						t.stop()
						_, err := callback(sobek.Undefined(), args...)
						return err
					})
					return
				}
				current := enqueue
				enqueue = loop.EnqueueJob()
				current(func() error {
					if t.cleared() {
						return nil
					}
					_, err := callback(sobek.Undefined(), args...)
					return err
				})
			case <-t.done:
				enqueue(func() error { return nil })
				return
			case <-ctx.Done():
				// the loop is stopped, only release the runtime timer
				t.halt()
				return
			}
		}
	}()

	return rt.ToValue(t.id)
}

func (*Timers) clear(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
	timersOf(rt).stop(call.Argument(0).ToInteger())
	return sobek.Undefined()
}

type timer struct {
	id      int64
	timer   *time.Timer
	ticker  *time.Ticker
	done    chan struct{}
	cleanup func()
}

// C returns the channel of the timer or the ticker.
func (t *timer) C() <-chan time.Time {
	if t.ticker != nil {
		return t.ticker.C
	}
	return t.timer.C
}

// cleared reports whether the timer was cleared, a fired callback
// still queued on the loop must not run then.
func (t *timer) cleared() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *timer) stop() {
	if t.cleared() {
		return
	}
	close(t.done)
	t.halt()
	t.cleanup()
}

func (t *timer) halt() {
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
	}
}

// registry the timers of a runtime, only accessed from the event loop.
type registry struct {
	id     int64
	timers map[int64]*timer
}

func (r *registry) add(delay time.Duration, repeat bool) *timer {
	r.id++
	id := r.id
	t := &timer{
		id:      id,
		done:    make(chan struct{}),
		cleanup: func() { delete(r.timers, id) },
	}
	if repeat {
		t.ticker = time.NewTicker(delay)
	} else {
		t.timer = time.NewTimer(delay)
	}
	r.timers[id] = t
	return t
}

func (r *registry) stop(id int64) {
	if t, ok := r.timers[id]; ok {
		t.stop()
	}
}

var symTimers = sobek.NewSymbol("Symbol.__timers__")

func timersOf(rt *sobek.Runtime) *registry {
	if v := rt.GlobalObject().GetSymbol(symTimers); v != nil {
		if r, ok := v.Export().(*registry); ok {
			return r
		}
	}
	panic(rt.NewTypeError(`symbol value of "timers" must be Timers`))
}
