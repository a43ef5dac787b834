package scripting

import (
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"

	"github.com/rdwr-valentineg/geoip-enrich/internal/geoip"
)

// VM hosts one JavaScript runtime with the lookup capability installed as
// a global `geoip` object. A VM is not safe for concurrent use; callers
// build one per script run.
type VM struct {
	vm       *goja.Runtime
	resolver *geoip.Resolver
}

// NewVM builds a runtime and installs the geoip module plus a log helper.
func NewVM(resolver *geoip.Resolver) (*VM, error) {
	v := &VM{
		vm:       goja.New(),
		resolver: resolver,
	}

	mod := v.vm.NewObject()
	if err := mod.Set("lookup", v.jsLookup); err != nil {
		return nil, err
	}
	if err := v.vm.Set("geoip", mod); err != nil {
		return nil, err
	}
	if err := v.vm.Set("log", v.jsLog); err != nil {
		return nil, err
	}
	return v, nil
}

// jsLookup adapts resolver lookups for scripts: geoip.lookup(ip, db,
// fields). Null and undefined arguments become empty strings, so
// geoip.lookup(null) follows the empty address rule and returns {}.
// Resolver errors are thrown as JavaScript exceptions.
func (v *VM) jsLookup(call goja.FunctionCall) goja.Value {
	ip := stringArg(call, 0)
	db := stringArg(call, 1)
	fields := stringArg(call, 2)

	out, err := v.resolver.Lookup(ip, db, fields)
	if err != nil {
		panic(v.vm.NewGoError(err))
	}
	return v.vm.ToValue(map[string]any(out))
}

func (v *VM) jsLog(call goja.FunctionCall) goja.Value {
	log.Debug().Str("package", "scripting").Msg(call.Argument(0).String())
	return goja.Undefined()
}

func stringArg(call goja.FunctionCall, i int) string {
	arg := call.Argument(i)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return ""
	}
	return arg.String()
}

// Run evaluates src and returns the exported result, nil when the script
// produced undefined or null.
func (v *VM) Run(src string) (any, error) {
	val, err := v.vm.RunString(src)
	if err != nil {
		return nil, err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

// RunTimeout evaluates src, interrupting the runtime if it is still
// running after d.
func (v *VM) RunTimeout(src string, d time.Duration) (any, error) {
	timer := time.AfterFunc(d, func() {
		v.vm.Interrupt("script timed out")
	})
	defer timer.Stop()
	defer v.vm.ClearInterrupt()
	return v.Run(src)
}
