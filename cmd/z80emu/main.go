package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/machine"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "z80emu",
		Short: "z80emu — step-wise Z80 machine-code emulator",
	}

	var (
		orgStr      string
		startStr    string
		maxSteps    int
		trace       bool
		configPath  string
		scriptPath  string
		interactive bool
		dumpJSON    string
		saveState   string
		loadState   string
	)

	runCmd := &cobra.Command{
		Use:   "run [image.bin]",
		Short: "Load a 64 KiB memory image and step until HALT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := machine.New()

			if configPath != "" {
				cfg, err := machine.LoadConfig(configPath)
				if err != nil {
					return err
				}
				if err := m.Apply(cfg); err != nil {
					return err
				}
				if cfg.Console != nil {
					console := machine.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
					console.Attach(m.CPU, uint8(cfg.Console.DataPort), uint8(cfg.Console.StatusPort))
				}
				if cfg.Script != "" && scriptPath == "" {
					scriptPath = cfg.Script
				}
			}

			if len(args) == 1 {
				org, err := parseAddr(orgStr)
				if err != nil {
					return fmt.Errorf("--org: %w", err)
				}
				if err := m.LoadImage(args[0], org); err != nil {
					return err
				}
			}
			if loadState != "" {
				if err := m.LoadState(loadState); err != nil {
					return err
				}
			}

			if startStr != "" {
				start, err := parseAddr(startStr)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				s := m.CPU.Registers()
				s.PC = start
				m.CPU.SetRegisters(s)
			}
			if maxSteps > 0 {
				m.MaxSteps = maxSteps
			}
			if trace {
				m.Trace = cmd.ErrOrStderr()
			}

			if scriptPath != "" {
				host := machine.NewScriptHost(m.CPU)
				defer host.Close()
				if err := host.RunFile(scriptPath); err != nil {
					return err
				}
			}

			if interactive {
				fd := int(os.Stdin.Fd())
				if term.IsTerminal(fd) {
					old, err := term.MakeRaw(fd)
					if err != nil {
						return fmt.Errorf("raw mode: %w", err)
					}
					defer term.Restore(fd, old)
				}
			}

			runErr := m.Run()

			out := cmd.OutOrStdout()
			var invalid *cpu.InvalidOpcodeError
			switch {
			case runErr == nil && m.Halted():
				fmt.Fprintf(out, "halted after %d steps\n", m.Steps())
			case runErr == nil:
				fmt.Fprintf(out, "step budget exhausted after %d steps\n", m.Steps())
			case errors.As(runErr, &invalid):
				fmt.Fprintf(out, "invalid opcode %s after %d steps\n",
					cpu.CallChainToHex(invalid.Path), m.Steps())
			default:
				return runErr
			}
			fmt.Fprintln(out, m.DumpRegisters())

			if dumpJSON != "" {
				f, err := os.Create(dumpJSON)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := m.WriteStateJSON(f); err != nil {
					return err
				}
			}
			if saveState != "" {
				if err := m.SaveState(saveState); err != nil {
					return err
				}
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&orgStr, "org", "0", "Load address for the image")
	runCmd.Flags().StringVar(&startStr, "start", "", "Initial PC (defaults to the reset vector)")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Stop after N instructions (0 = unlimited)")
	runCmd.Flags().BoolVarP(&trace, "trace", "t", false, "Trace each instruction to stderr")
	runCmd.Flags().StringVar(&configPath, "config", "", "TOML machine definition")
	runCmd.Flags().StringVar(&scriptPath, "script", "", "Lua script binding port handlers")
	runCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Raw-mode terminal for the console device")
	runCmd.Flags().StringVar(&dumpJSON, "dump-json", "", "Write a JSON register dump on exit")
	runCmd.Flags().StringVar(&saveState, "save-state", "", "Write a machine snapshot on exit")
	runCmd.Flags().StringVar(&loadState, "load-state", "", "Restore a machine snapshot before running")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseAddr accepts decimal or 0x-prefixed hex and enforces the 16-bit range.
func parseAddr(s string) (uint16, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
