// Package script selects devices with user-supplied Lua.
//
// A filter script defines a global function accept(dev) that receives one
// table per enumerated device and returns true to keep it:
//
//	function accept(dev)
//	    -- dev.index, dev.name (nil when unnamed), dev.named, dev.path, dev.category
//	    return dev.named and not dev.name:find("Virtual")
//	end
//
// print output is captured and can be drained with Output.
package script

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aarzilli/golua/lua"
	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/ringchan"
)

// AcceptFunction is the global a filter script must define
const AcceptFunction = "accept"

const outputCapacity = 256

// OutputRecord is one line printed by a script
type OutputRecord struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "stdout" or "stderr"
}

// LuaError represents a failure to load or run a filter script
type LuaError struct {
	Type    string // "syntax", "runtime", "api"
	Message string
	Line    int
	Source  string
}

func (e *LuaError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, "in "+e.Source)
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Lua %s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("Lua %s error (%s): %s", e.Type, strings.Join(parts, ", "), e.Message)
}

// Is matches LuaError values by Type
func (e *LuaError) Is(target error) bool {
	var luaErr *LuaError
	if errors.As(target, &luaErr) {
		return e.Type == luaErr.Type
	}
	return false
}

// Filter evaluates a Lua accept function against devices. It is safe for
// concurrent use; calls into the Lua state are serialized.
type Filter struct {
	mu     sync.Mutex
	state  *lua.State
	source string
	logger *logrus.Logger
	output *ringchan.RingChannel[OutputRecord]
}

// NewFilter creates a filter with a fresh Lua state and no script loaded
func NewFilter(logger *logrus.Logger) *Filter {
	if logger == nil {
		logger = logrus.New()
	}

	f := &Filter{
		state:  lua.NewState(),
		logger: logger,
		output: ringchan.New[OutputRecord](outputCapacity),
	}
	f.state.OpenLibs()
	f.registerPrintCapture()
	return f
}

func (f *Filter) emit(source, content string) {
	f.output.Send(OutputRecord{Content: content, Timestamp: time.Now(), Source: source})
}

func (f *Filter) registerPrintCapture() {
	f.state.PushGoFunction(func(L *lua.State) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			switch {
			case L.IsNil(i):
				parts = append(parts, "nil")
			case L.IsBoolean(i):
				parts = append(parts, fmt.Sprintf("%t", L.ToBoolean(i)))
			case L.IsString(i), L.IsNumber(i):
				parts = append(parts, L.ToString(i))
			default:
				parts = append(parts, L.Typename(int(L.Type(i))))
			}
		}
		f.emit("stdout", strings.Join(parts, "\t")+"\n")
		return 0
	})
	f.state.SetGlobal("print")
}

// LoadFile loads a filter script from a file
func (f *Filter) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return f.Load(string(content), path)
}

// Load runs script's top-level chunk and checks that it defines accept
func (f *Filter) Load(script, name string) error {
	if strings.TrimSpace(script) == "" {
		return &LuaError{Type: "api", Message: "empty script", Source: name}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == nil {
		return &LuaError{Type: "api", Message: "filter is closed", Source: name}
	}

	top := f.state.GetTop()
	defer f.state.SetTop(top)

	if status := f.state.LoadString(script); status != 0 {
		luaErr := parseLuaError("syntax", name, f.state.ToString(-1))
		f.emit("stderr", luaErr.Error())
		return luaErr
	}
	if err := f.state.Call(0, 0); err != nil {
		luaErr := parseLuaError("runtime", name, err.Error())
		f.emit("stderr", luaErr.Error())
		return luaErr
	}

	f.state.GetGlobal(AcceptFunction)
	if !f.state.IsFunction(-1) {
		return &LuaError{Type: "api", Message: "script must define a global function accept(dev)", Source: name}
	}

	f.source = name
	f.logger.WithField("script", name).Debug("Loaded device filter script")
	return nil
}

// Accept calls accept(dev) for one device; Lua truthiness decides the result
func (f *Filter) Accept(info device.Info) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == nil {
		return false, &LuaError{Type: "api", Message: "filter is closed"}
	}

	L := f.state
	top := L.GetTop()
	defer L.SetTop(top)

	L.GetGlobal(AcceptFunction)
	if !L.IsFunction(-1) {
		return false, &LuaError{Type: "api", Message: "no filter script loaded"}
	}

	pushInfo(L, info)
	if err := L.Call(1, 1); err != nil {
		luaErr := parseLuaError("runtime", f.source, err.Error())
		f.emit("stderr", luaErr.Error())
		return false, luaErr
	}
	return L.ToBoolean(-1), nil
}

// Predicate adapts the filter to a plain predicate. Script errors reject the
// device and are logged.
func (f *Filter) Predicate() func(device.Info) bool {
	return func(info device.Info) bool {
		ok, err := f.Accept(info)
		if err != nil {
			f.logger.WithError(err).WithField("index", info.Index).Warn("Filter script failed; device rejected")
			return false
		}
		return ok
	}
}

// Output drains everything the script printed so far
func (f *Filter) Output() []OutputRecord {
	return f.output.Drain()
}

// Close releases the Lua state. The filter cannot be used afterwards.
func (f *Filter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != nil {
		f.state.Close()
		f.state = nil
	}
}

func pushInfo(L *lua.State, info device.Info) {
	L.NewTable()

	L.PushInteger(int64(info.Index))
	L.SetField(-2, "index")

	if info.Named {
		L.PushString(info.Name)
		L.SetField(-2, "name")
	}

	L.PushBoolean(info.Named)
	L.SetField(-2, "named")

	if info.Path != "" {
		L.PushString(info.Path)
		L.SetField(-2, "path")
	}

	L.PushString(info.Category.String())
	L.SetField(-2, "category")
}

// parseLuaError extracts the line number from messages like `[string "..."]:3: boom`
func parseLuaError(errType, source, msg string) *LuaError {
	luaErr := &LuaError{Type: errType, Message: msg, Source: source}
	i := strings.Index(msg, "]:")
	if i < 0 {
		return luaErr
	}
	rest := msg[i+2:]
	if j := strings.Index(rest, ":"); j > 0 {
		if line, err := strconv.Atoi(rest[:j]); err == nil {
			luaErr.Line = line
			luaErr.Message = strings.TrimSpace(rest[j+1:])
		}
	}
	return luaErr
}
