package machine

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/oisee/z80emu/pkg/cpu"
)

// ScriptHost runs a Lua machine-definition script against a CPU. Scripts
// attach port handlers and poke memory without recompiling the host:
//
//	poke(0x8000, 0x3E)
//	bind_port(7, function(mode, data)
//	    if mode == "write" then log(string.format("out %02x", data)) end
//	    return 0x42
//	end)
//
// Handlers run synchronously during Execute; a Lua error propagates to the
// host through the I/O-callback error channel.
type ScriptHost struct {
	L   *lua.LState
	cpu *cpu.CPU
}

// NewScriptHost creates a Lua state bound to the given CPU.
func NewScriptHost(c *cpu.CPU) *ScriptHost {
	h := &ScriptHost{L: lua.NewState(), cpu: c}
	h.register()
	return h
}

// Close releases the Lua state. Bound port handlers must not be invoked
// afterwards.
func (h *ScriptHost) Close() {
	h.L.Close()
}

// RunFile executes a script file.
func (h *ScriptHost) RunFile(path string) error {
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// RunString executes inline script text.
func (h *ScriptHost) RunString(src string) error {
	if err := h.L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (h *ScriptHost) register() {
	L := h.L

	L.SetGlobal("peek", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		L.Push(lua.LNumber(h.cpu.Memory().ReadByte(addr)))
		return 1
	}))

	L.SetGlobal("poke", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		v := uint8(L.CheckInt(2))
		h.cpu.Memory().WriteByte(addr, v)
		return 0
	}))

	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		fmt.Fprintln(os.Stderr, L.CheckString(1))
		return 0
	}))

	L.SetGlobal("bind_port", L.NewFunction(func(L *lua.LState) int {
		port := L.CheckInt(1)
		fn := L.CheckFunction(2)
		if port < 0 || port > 0xFF {
			L.ArgError(1, "port out of range")
			return 0
		}
		h.cpu.AddPortHandler(uint8(port), h.portHandler(fn))
		return 0
	}))
}

// portHandler wraps a Lua function as a cpu.PortHandler. The function
// receives ("read"|"write", data) and its first return value, if any, is the
// byte delivered on reads.
func (h *ScriptHost) portHandler(fn *lua.LFunction) cpu.PortHandler {
	return func(mode cpu.PortMode, data uint8) (uint8, error) {
		err := h.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lua.LString(mode.String()), lua.LNumber(data))
		if err != nil {
			return 0, err
		}
		ret := h.L.Get(-1)
		h.L.Pop(1)
		if n, ok := ret.(lua.LNumber); ok {
			return uint8(int64(n)), nil
		}
		return 0, nil
	}
}
