// Package config loads and saves the simulator's persistent settings,
// mirroring the teacher's own config package: a TOML-backed Config struct,
// platform-specific config/log directory resolution, and CLI flags in
// cmd/riscv-sim that override whatever this file supplies.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the simulator's persistent settings.
type Config struct {
	// Execution settings
	Execution struct {
		MaxCycles     uint64 `toml:"max_cycles"`
		MemBase       uint32 `toml:"mem_base"`
		MemSize       uint32 `toml:"mem_size"`
		DefaultEntry  string `toml:"default_entry"`
		Extensions    string `toml:"extensions"` // comma-separated: "M,C,B,E"
		BranchPenalty uint64 `toml:"branch_penalty"`
		PredictTaken  bool   `toml:"predict_taken"`
		SingleRAM     bool   `toml:"single_ram"`
		EnableTrace   bool   `toml:"enable_trace"`
		EnableStats   bool   `toml:"enable_stats"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
		ShowRegisters  bool `toml:"show_registers"`
		GDBPort        int  `toml:"gdb_port"`
	} `toml:"debugger"`

	// Display settings
	Display struct {
		ColorOutput   bool   `toml:"color_output"`
		BytesPerLine  int    `toml:"bytes_per_line"`
		DisasmContext int    `toml:"disasm_context"`
		NumberFormat  string `toml:"number_format"` // hex, dec
	} `toml:"display"`

	// Trace settings
	Trace struct {
		OutputFile    string `toml:"output_file"`
		FilterRegs    string `toml:"filter_registers"` // comma-separated: "x1,x2,pc"
		IncludeCycles bool   `toml:"include_cycles"`
		MaxEntries    int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings
	Statistics struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, csv
		TrackCalls bool   `toml:"track_calls"`
	} `toml:"statistics"`

	// MMIO settings
	MMIO struct {
		FSRoot       string `toml:"fs_root"`
		ConsoleRaw   bool   `toml:"console_raw"`
		TohostAddr   uint32 `toml:"tohost_addr"`
		FromhostAddr uint32 `toml:"fromhost_addr"`
		UARTBase     uint32 `toml:"uart_base"`
	} `toml:"mmio"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 10_000_000
	cfg.Execution.MemBase = 0x8000_0000
	cfg.Execution.MemSize = 16 * 1024 * 1024
	cfg.Execution.DefaultEntry = "0x80000000"
	cfg.Execution.Extensions = "M,C"
	cfg.Execution.BranchPenalty = 2
	cfg.Execution.PredictTaken = false
	cfg.Execution.SingleRAM = false
	cfg.Execution.EnableTrace = false
	cfg.Execution.EnableStats = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.GDBPort = 1234

	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16
	cfg.Display.DisasmContext = 5
	cfg.Display.NumberFormat = "hex"

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.FilterRegs = ""
	cfg.Trace.IncludeCycles = true
	cfg.Trace.MaxEntries = 100000

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"
	cfg.Statistics.TrackCalls = true

	cfg.MMIO.FSRoot = ""
	cfg.MMIO.ConsoleRaw = true
	cfg.MMIO.TohostAddr = 0x9000_0030
	cfg.MMIO.FromhostAddr = 0x9000_0034
	cfg.MMIO.UARTBase = 0x9000_1000

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "riscv-sim")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "riscv-sim")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "riscv-sim", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "riscv-sim", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
