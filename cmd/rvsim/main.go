package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/profile"
	"golang.org/x/term"

	"github.com/intuitionamiga/rvsim"
)

func boilerPlate() {
	fmt.Fprintln(os.Stderr, "rvsim - RV32IM functional simulator")
	fmt.Fprintln(os.Stderr, "(c) 2024 - 2026 Zayn Otley")
	fmt.Fprintln(os.Stderr, "https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Fprintln(os.Stderr, "License: GPLv3 or later")
}

type options struct {
	raw          bool
	loadAddr     string
	startAddr    string
	fsRoot       string
	traceCap     int
	noScreen     bool
	maxSteps     uint64
	monitor      bool
	interactive  bool
	script       string
	screenshot   string
	input        string
	verbose      bool
	syscallTrace bool
	profileDir   string
	jobs         int
}

func main() {
	log.SetFlags(0)
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opt options

	flagSet := flag.NewFlagSet("rvsim", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&opt.raw, "raw", false, "Load a flat binary instead of an ELF")
	flagSet.StringVar(&opt.loadAddr, "load-addr", "0x80000000", "Load address for -raw (hex or decimal)")
	flagSet.StringVar(&opt.startAddr, "start", "", "Override the start PC")
	flagSet.StringVar(&opt.fsRoot, "fs", "", "Host directory exposed as the guest filesystem (default: temporary)")
	flagSet.IntVar(&opt.traceCap, "trace", rvsim.DEFAULT_TRACE_CAPACITY, "Trace buffer entries (0 disables)")
	flagSet.BoolVar(&opt.noScreen, "no-screen", false, "Disable the VT100 screen model")
	flagSet.Uint64Var(&opt.maxSteps, "max", 100_000_000, "Instruction budget")
	flagSet.BoolVar(&opt.monitor, "monitor", false, "Read machine monitor commands from stdin")
	flagSet.BoolVar(&opt.interactive, "interactive", false, "Attach the terminal to the console UART (Ctrl-] detaches)")
	flagSet.StringVar(&opt.script, "script", "", "Run a Lua script against the session")
	flagSet.StringVar(&opt.screenshot, "screenshot", "", "Write the final VT100 screen to a PNG file")
	flagSet.StringVar(&opt.input, "input", "", "Text injected on the console UART before running")
	flagSet.BoolVar(&opt.verbose, "v", false, "Dump the final result and registers")
	flagSet.BoolVar(&opt.syscallTrace, "strace", false, "Log every system call")
	flagSet.StringVar(&opt.profileDir, "profile", "", "Write a CPU profile to this directory")
	flagSet.IntVar(&opt.jobs, "j", 0, "Run several programs concurrently, at most this many at once")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: rvsim [options] program.elf [program.elf...]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Printf("Error: %v", err)
		return 2
	}
	if flagSet.NArg() == 0 && !opt.monitor {
		flagSet.Usage()
		return 2
	}

	if opt.profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opt.profileDir), profile.NoShutdownHook).Stop()
	}

	cfg, err := sessionConfig(&opt)
	if err != nil {
		log.Printf("Error: %v", err)
		return 2
	}
	if flagSet.NArg() > 1 || opt.jobs > 0 {
		return runBatch(&opt, cfg, flagSet.Args())
	}
	return runSingle(&opt, cfg, flagSet.Arg(0))
}

func sessionConfig(opt *options) (rvsim.SessionConfig, error) {
	cfg := rvsim.DefaultSessionConfig()
	cfg.FSRoot = opt.fsRoot
	cfg.TraceCapacity = opt.traceCap
	cfg.Screen = !opt.noScreen
	cfg.SyscallTrace = opt.syscallTrace
	if opt.syscallTrace || opt.verbose {
		cfg.Logger = log.New(os.Stderr, "rvsim: ", 0)
	}
	if opt.raw {
		addr, ok := rvsim.ParseAddress(opt.loadAddr)
		if !ok {
			return cfg, fmt.Errorf("invalid load address %q", opt.loadAddr)
		}
		cfg.StartPC = addr
	}
	if opt.startAddr != "" {
		addr, ok := rvsim.ParseAddress(opt.startAddr)
		if !ok {
			return cfg, fmt.Errorf("invalid start address %q", opt.startAddr)
		}
		cfg.StartPC = addr
	}
	return cfg, nil
}

func loadProgram(s *rvsim.Session, opt *options, path string) error {
	if path == "" {
		return nil
	}
	if opt.raw {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		addr, _ := rvsim.ParseAddress(opt.loadAddr)
		if err := s.LoadBytes(addr, data); err != nil {
			return err
		}
		s.SetPC(s.Config().StartPC)
		return nil
	}
	img, err := s.LoadELFFile(path)
	if err != nil {
		return err
	}
	if opt.startAddr != "" {
		s.SetPC(s.Config().StartPC)
	} else {
		s.SetPC(img.Entry)
	}
	return nil
}

func runSingle(opt *options, cfg rvsim.SessionConfig, path string) int {
	s, err := rvsim.NewSession(cfg)
	if err != nil {
		log.Printf("Error: %v", err)
		return 1
	}
	defer s.Close()

	if err := loadProgram(s, opt, path); err != nil {
		log.Printf("Error loading %s: %v", path, err)
		return 1
	}
	if opt.input != "" {
		if err := s.UARTInject(rvsim.ConsoleUART, []byte(opt.input)); err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
	}

	var result rvsim.ExecutionResult
	switch {
	case opt.script != "":
		engine := rvsim.NewScriptEngine(s)
		defer engine.Close()
		if err := engine.RunFile(opt.script); err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
		return finish(opt, s, nil)

	case opt.monitor:
		boilerPlate()
		mon := rvsim.NewMachineMonitor(s)
		defer mon.Close()
		color := term.IsTerminal(int(os.Stdout.Fd()))
		if err := mon.Serve(os.Stdin, os.Stdout, "rvsim> ", color); err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
		return finish(opt, s, nil)

	case opt.interactive:
		host := rvsim.NewTerminalHost(os.Stdin, os.Stdout)
		if err := host.Start(); err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
		result = host.Interact(s, 1_000_000)
		host.Stop()
		fmt.Fprintln(os.Stdout)

	default:
		result = s.Run(opt.maxSteps)
		os.Stdout.Write(s.UARTReadNew(rvsim.DebugUART))
		os.Stdout.Write(s.UARTReadNew(rvsim.ConsoleUART))
	}
	return finish(opt, s, &result)
}

// finish writes the optional screenshot and dumps, then maps the result to
// a process exit status.
func finish(opt *options, s *rvsim.Session, result *rvsim.ExecutionResult) int {
	if opt.screenshot != "" && s.Screen() != nil {
		if err := writeScreenshot(opt.screenshot, s.Screen()); err != nil {
			log.Printf("Error: %v", err)
		}
	}
	if result == nil {
		return 0
	}
	if opt.verbose {
		spew.Fdump(os.Stderr, *result)
		spew.Fdump(os.Stderr, s.Registers())
	}

	switch result.Status {
	case rvsim.StatusHalted:
		if result.Exited {
			return int(result.ExitCode) & 0xFF
		}
		return 0
	case rvsim.StatusError:
		log.Printf("%v", result)
		return 1
	default:
		log.Printf("stopped: %v", result)
		return 3
	}
}

func writeScreenshot(path string, screen *rvsim.VT100Screen) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rvsim.WriteScreenPNG(f, screen); err != nil {
		f.Close()
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return f.Close()
}

func runBatch(opt *options, cfg rvsim.SessionConfig, paths []string) int {
	jobs := make([]rvsim.BatchJob, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error: %v", err)
			return 1
		}
		jobs = append(jobs, rvsim.BatchJob{
			Name:     filepath.Base(path),
			Image:    data,
			Raw:      opt.raw,
			MaxSteps: opt.maxSteps,
			Config:   cfg,
			Input:    []byte(opt.input),
		})
	}

	results, err := rvsim.RunBatch(context.Background(), jobs, opt.jobs)
	if err != nil {
		log.Printf("Error: %v", err)
		return 1
	}
	status := 0
	for _, r := range results {
		if r.Err != nil {
			log.Printf("%s: %v", r.Name, r.Err)
			status = 1
			continue
		}
		fmt.Printf("== %s: %v\n", r.Name, r.Result)
		os.Stdout.Write(r.Debug)
		os.Stdout.Write(r.Console)
		if opt.verbose {
			spew.Fdump(os.Stderr, r.Result)
		}
		if r.Result.Status == rvsim.StatusError {
			status = 1
		}
	}
	return status
}
