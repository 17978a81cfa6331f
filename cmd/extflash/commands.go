package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/extflash/internal/config"
	"github.com/muurk/extflash/internal/gdb"
	"github.com/muurk/extflash/internal/image"
	"github.com/muurk/extflash/internal/logging"
	"github.com/muurk/extflash/internal/transfer"
	"github.com/muurk/extflash/internal/ui"
)

// Command flags
var (
	profileName    string
	gdbPath        string
	symbolFile     string
	remoteHost     string
	remotePort     int
	gdbTimeout     string
	gdbVerbose     bool // Show raw debugger output on failure
	ramBufferAddr  uint64
	ramBufferSize  int
	flashBase      uint64
	copyFunction   string
	chunkSize      int
	maxAttempts    int
	stagingDir     string
	verifyReadback bool
	haltTarget     bool
	dumpStart      uint64
	dumpSize       int
	dumpOutput     string
	setDefault     bool
)

func init() {
	// Common flags for all commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Target profile name (default: configured default profile)")
	rootCmd.PersistentFlags().StringVar(&gdbPath, "gdb-path", "arm-none-eabi-gdb", "Path to GDB binary")
	rootCmd.PersistentFlags().StringVar(&remoteHost, "remote-host", "localhost", "GDB server hostname")
	rootCmd.PersistentFlags().IntVar(&remotePort, "remote-port", 3333, "GDB server port")
	rootCmd.PersistentFlags().StringVar(&gdbTimeout, "timeout", "5s", "Per-command debugger timeout (e.g., 5s, 30s)")
	rootCmd.PersistentFlags().BoolVarP(&gdbVerbose, "verbose", "v", false, "Show raw debugger output on failure")

	// Add subcommands
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(verifySetupCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(profileCmd)
}

// resolveProfile loads the registry and merges the selected profile
// into the flag variables. Flags set explicitly on the command line
// win over profile values.
func resolveProfile(cmd *cobra.Command) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// A profile is optional when the full layout comes from flags.
	profile, err := registry.ResolveProfile(profileName)
	if err != nil {
		if profileName != "" {
			return err
		}
		return nil
	}

	flags := cmd.Flags()
	if !flags.Changed("gdb-path") && profile.GDBPath != "" {
		gdbPath = profile.GDBPath
	}
	if !flags.Changed("symbol-file") && profile.SymbolFile != "" {
		symbolFile = profile.SymbolFile
	}
	if !flags.Changed("remote-host") && profile.RemoteHost != "" {
		remoteHost = profile.RemoteHost
	}
	if !flags.Changed("remote-port") && profile.RemotePort != 0 {
		remotePort = profile.RemotePort
	}
	if !flags.Changed("ram-buffer-addr") && profile.RAMBufferAddr != 0 {
		ramBufferAddr = profile.RAMBufferAddr
	}
	if !flags.Changed("ram-buffer-size") && profile.RAMBufferSize != 0 {
		ramBufferSize = profile.RAMBufferSize
	}
	if !flags.Changed("flash-base") && profile.FlashBase != 0 {
		flashBase = profile.FlashBase
	}
	if !flags.Changed("copy-function") && profile.CopyFunction != "" {
		copyFunction = profile.CopyFunction
	}
	if !flags.Changed("chunk-size") && profile.ChunkSize != 0 {
		chunkSize = profile.ChunkSize
	}
	if !flags.Changed("max-attempts") && profile.MaxAttempts != 0 {
		maxAttempts = profile.MaxAttempts
	}
	if !flags.Changed("timeout") && profile.ResponseTimeout() != 0 {
		gdbTimeout = profile.ResponseTimeout().String()
	}
	if stagingDir == "" && registry.Preferences != nil {
		stagingDir = registry.Preferences.StagingDir
	}

	return nil
}

// sessionConfig builds the debugger session config from flags.
func sessionConfig() (gdb.Config, error) {
	timeout, err := time.ParseDuration(gdbTimeout)
	if err != nil {
		return gdb.Config{}, fmt.Errorf("invalid timeout value: %w", err)
	}

	cfg := gdb.DefaultConfig()
	cfg.GDBPath = gdbPath
	cfg.SymbolFile = symbolFile
	cfg.RemoteHost = remoteHost
	cfg.RemotePort = remotePort
	cfg.ResponseTimeout = timeout
	return cfg, nil
}

// interruptContext returns a context cancelled on Ctrl+C.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadCmd implements the 'load' command
var loadCmd = &cobra.Command{
	Use:   "load <image.bin>",
	Short: "Transfer a binary image into external flash",
	Long: `Transfer a binary image into the target's external flash.

The image is split into chunks no larger than the RAM staging buffer.
For each chunk:
  1. The chunk is written to a temporary file on the host
  2. The debugger restores the file into the RAM buffer
  3. The target's copy routine moves it into flash and returns a checksum
  4. The checksum is compared with the host's; a mismatch retries the
     chunk from scratch, up to --max-attempts

The transfer stops at the first chunk that exhausts its attempts;
chunks already verified stay written.`,
	Example: `  # Using the default profile
  extflash load firmware.bin

  # Using a named profile, overriding the chunk size
  extflash load firmware.bin --profile devboard --chunk-size 32768

  # Fully flag-driven
  extflash load firmware.bin --symbol-file firmware.elf \
      --ram-buffer-addr 0x200b76a8 --ram-buffer-size 65536 \
      --flash-base 0x90000000 --copy-function copy_ram_to_flash`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&symbolFile, "symbol-file", "", "ELF file providing the copy routine's symbol")
	loadCmd.Flags().Uint64Var(&ramBufferAddr, "ram-buffer-addr", 0, "RAM staging buffer address")
	loadCmd.Flags().IntVar(&ramBufferSize, "ram-buffer-size", 0, "RAM staging buffer size in bytes")
	loadCmd.Flags().Uint64Var(&flashBase, "flash-base", 0, "External flash base address")
	loadCmd.Flags().StringVar(&copyFunction, "copy-function", "", "Symbol of the RAM-to-flash copy routine")
	loadCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Transfer unit in bytes (default: RAM buffer size)")
	loadCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Attempts per chunk before giving up (default: 3)")
	loadCmd.Flags().StringVar(&stagingDir, "staging-dir", "", "Directory for chunk staging files (default: os temp)")
	loadCmd.Flags().BoolVar(&verifyReadback, "verify-readback", false, "Read the RAM buffer back after the final chunk and compare bytes")
	loadCmd.Flags().BoolVar(&haltTarget, "halt", false, "Halt the target before the transfer")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	if err := resolveProfile(cmd); err != nil {
		return err
	}

	imagePath := args[0]

	// Silent by default; EXTFLASH_LOG_LEVEL=debug for the full console trace
	_ = logging.InitializeFromEnv()
	logger := logging.GetLogger()
	defer logging.Sync()

	params := transfer.Params{
		RAMBufferAddr:  ramBufferAddr,
		RAMBufferSize:  ramBufferSize,
		FlashBase:      flashBase,
		CopyFunction:   copyFunction,
		ChunkSize:      chunkSize,
		MaxAttempts:    maxAttempts,
		VerifyReadback: verifyReadback,
	}
	if err := params.Validate(); err != nil {
		ui.PrintFailure("Invalid transfer parameters", err, []string{
			"Set the target layout via --profile or the --ram-buffer-*/--flash-base flags",
			"List configured profiles: extflash profile list",
		})
		return err
	}

	img, err := image.Load(imagePath)
	if err != nil {
		ui.PrintFailure("Cannot read image", err, []string{
			"Check the image path and permissions",
		})
		return err
	}

	ui.PrintCommandHeader(
		"Image Transfer",
		"extflash load "+imagePath,
		map[string]string{
			"Remote":     fmt.Sprintf("%s:%d", remoteHost, remotePort),
			"Image":      fmt.Sprintf("%s (%s)", imagePath, ui.FormatBytes(int64(img.Len()))),
			"RAM buffer": fmt.Sprintf("%#x (%s)", ramBufferAddr, ui.FormatBytes(int64(ramBufferSize))),
			"Flash base": fmt.Sprintf("%#x", flashBase),
			"Copy via":   copyFunction,
		},
	)

	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	store, err := image.NewStore(stagingDir, logger)
	if err != nil {
		ui.PrintFailure("Cannot create staging directory", err, []string{
			"Check free space and permissions on the staging directory",
		})
		return err
	}
	defer store.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	ui.PrintPleaseWait("Connecting to debugger", fmt.Sprintf("%s via %s:%d", gdbPath, remoteHost, remotePort))
	sess, err := gdb.Start(ctx, cfg, logger)
	if err != nil {
		ui.PrintFailure("Debugger startup failed", err, []string{
			"Check the setup: extflash verify-setup",
			"Ensure the GDB server is running and attached to the target",
			"Run with EXTFLASH_LOG_LEVEL=debug for the full console trace",
		})
		printStartupOutput(err)
		return err
	}

	if haltTarget {
		if err := sess.MonitorHalt(ctx); err != nil {
			ui.PrintFailure("Failed to halt target", err, []string{
				"Check the debug server supports 'monitor halt'",
			})
			_ = sess.Shutdown(context.Background())
			return err
		}
	}

	run := transfer.New(sess, store, img, params, logger)
	run.OnProgress = func(p transfer.Progress) {
		line := ui.TransferProgress{
			ChunkIndex:     p.ChunkIndex,
			ChunksTotal:    p.ChunksTotal,
			BytesTotal:     p.BytesTotal,
			BytesRemaining: p.BytesRemaining,
			Attempt:        p.Attempt,
			Retrying:       p.Phase == transfer.PhaseRetrying,
		}
		switch p.Phase {
		case transfer.PhaseVerified, transfer.PhaseRetrying:
			fmt.Print("\r" + line.Render())
		}
	}

	started := time.Now()
	err = run.Run(ctx)
	fmt.Println()
	if err != nil {
		if ctx.Err() != nil {
			ui.PrintFailure("Transfer interrupted", err, []string{
				"Verified chunks stay written; rerun to start over from the beginning",
			})
			return err
		}
		ui.PrintFailure("Transfer failed", err, []string{
			"Verify the GDB server is still connected",
			"Check the target hasn't reset mid-transfer",
			"Run with EXTFLASH_LOG_LEVEL=debug for the full console trace",
		})
		return err
	}

	fmt.Println(ui.RenderTransferDone(chunkCount(img.Len(), params), int64(img.Len())))
	ui.PrintSuccess("Image transfer complete", map[string]string{
		"Image":    imagePath,
		"Written":  ui.FormatBytes(int64(img.Len())),
		"Chunks":   fmt.Sprintf("%d", chunkCount(img.Len(), params)),
		"Flash":    fmt.Sprintf("%#x - %#x", flashBase, flashBase+uint64(img.Len())),
		"Duration": time.Since(started).Round(time.Millisecond).String(),
	})

	// Remember the run on the profile
	if profileName != "" {
		if registry, err := config.LoadRegistry(); err == nil {
			registry.TouchProfile(profileName)
			_ = config.SaveGlobal()
		}
	}

	return nil
}

// printStartupOutput surfaces the raw console lines behind a startup
// failure when --verbose is set.
func printStartupOutput(err error) {
	if !gdbVerbose {
		return
	}
	var startErr *gdb.StartupError
	if errors.As(err, &startErr) && startErr.Output != "" {
		ui.PrintDebuggerOutput(strings.Split(startErr.Output, "\n"))
	}
}

func chunkCount(imageLen int, params transfer.Params) int {
	unit := params.ChunkSize
	if unit == 0 {
		unit = params.RAMBufferSize
	}
	return (imageLen + unit - 1) / unit
}

// verifySetupCmd implements the 'verify-setup' command
var verifySetupCmd = &cobra.Command{
	Use:   "verify-setup",
	Short: "Verify GDB and debug server setup",
	Long: `Verify that all prerequisites for a transfer are met.

This command checks:
  1. The GDB binary is installed and executable
  2. The binary identifies itself as GNU GDB
  3. The GDB server endpoint accepts TCP connections

Run this command first to troubleshoot any connection issues.`,
	Example: `  # Verify default setup
  extflash verify-setup

  # Verify with custom settings
  extflash verify-setup --remote-host 192.168.1.100 --gdb-path /opt/gcc-arm/bin/arm-none-eabi-gdb`,
	RunE: runVerifySetup,
}

func runVerifySetup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := resolveProfile(cmd); err != nil {
		return err
	}

	ui.PrintCommandHeader(
		"Setup Verification",
		"extflash verify-setup",
		map[string]string{
			"GDB Path":   gdbPath,
			"GDB Server": fmt.Sprintf("%s:%d", remoteHost, remotePort),
		},
	)

	ctx, cancel := interruptContext()
	defer cancel()

	gdbErr := gdb.ValidateGDBPath(ctx, gdbPath)
	remoteErr := gdb.ValidateRemoteConnection(ctx, remoteHost, remotePort)

	if gdbErr != nil || remoteErr != nil {
		var troubleshooting []string
		errorMsg := "Setup verification failed"

		if gdbErr != nil {
			troubleshooting = append(troubleshooting,
				"GDB binary not found or not executable",
				"Install ARM toolchain: brew install arm-none-eabi-gcc (macOS)",
				"Or: apt install gcc-arm-none-eabi (Linux)",
			)
			errorMsg = fmt.Sprintf("GDB: %v", gdbErr)
		}

		if remoteErr != nil {
			troubleshooting = append(troubleshooting,
				"Ensure the GDB server is running (e.g., openocd -f <config.cfg>)",
				"Check it is listening on the configured host/port",
				"Verify firewall settings allow the connection",
			)
			if gdbErr == nil {
				errorMsg = fmt.Sprintf("GDB server: %v", remoteErr)
			}
		}

		ui.PrintFailure("Setup verification failed", fmt.Errorf("%s", errorMsg), troubleshooting)
		return fmt.Errorf("setup verification failed")
	}

	gdbVersion, err := gdb.GDBVersion(ctx, gdbPath)
	if err != nil {
		gdbVersion = "unknown"
	}

	ui.PrintSuccess("Setup verification complete", map[string]string{
		"GDB":        gdbVersion,
		"GDB Server": fmt.Sprintf("%s:%d (connected)", remoteHost, remotePort),
		"Status":     "Ready for transfer",
	})

	return nil
}

// dumpCmd implements the 'dump' command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump a target memory region to file",
	Long: `Dump a region of target memory to a binary file on the host.

This is the read-back counterpart of 'load': point it at the flash
region just written (via the memory-mapped flash window) to inspect
what actually landed, or at RAM for debugging.`,
	Example: `  # Read back the first 64 KiB of external flash
  extflash dump --start 0x90000000 --size 65536 --output region.bin`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().Uint64Var(&dumpStart, "start", 0, "Region start address (required)")
	dumpCmd.Flags().IntVar(&dumpSize, "size", 0, "Region size in bytes (required)")
	dumpCmd.Flags().StringVar(&dumpOutput, "output", "", "Output file (required)")
	dumpCmd.Flags().StringVar(&symbolFile, "symbol-file", "", "ELF file for symbols (optional)")
	dumpCmd.MarkFlagRequired("start")
	dumpCmd.MarkFlagRequired("size")
	dumpCmd.MarkFlagRequired("output")
}

func runDump(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := resolveProfile(cmd); err != nil {
		return err
	}

	if dumpSize <= 0 {
		return fmt.Errorf("--size must be positive")
	}

	ui.PrintCommandHeader(
		"Memory Dump",
		"extflash dump",
		map[string]string{
			"Remote": fmt.Sprintf("%s:%d", remoteHost, remotePort),
			"Region": fmt.Sprintf("%#x - %#x", dumpStart, dumpStart+uint64(dumpSize)),
			"Size":   ui.FormatBytes(int64(dumpSize)),
			"Output": dumpOutput,
		},
	)

	_ = logging.InitializeFromEnv()
	logger := logging.GetLogger()
	defer logging.Sync()

	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	sess, err := gdb.Start(ctx, cfg, logger)
	if err != nil {
		ui.PrintFailure("Debugger startup failed", err, []string{
			"Check the setup: extflash verify-setup",
		})
		printStartupOutput(err)
		return err
	}
	defer sess.Shutdown(context.Background())

	ui.PrintPleaseWait("Dumping target memory", "large regions take a while")
	if err := sess.DumpMemory(ctx, dumpOutput, dumpStart, dumpStart+uint64(dumpSize)); err != nil {
		ui.PrintFailure("Memory dump failed", err, []string{
			"Verify the region is readable on this target",
			"Check the GDB server is still connected",
		})
		return err
	}

	// The debugger writes the file; confirm it has the expected size.
	info, err := os.Stat(dumpOutput)
	if err != nil {
		ui.PrintFailure("Memory dump verification failed", err, []string{
			"The debugger reported success but the file is missing",
			"Check disk space and permissions",
		})
		return fmt.Errorf("failed to verify output file: %w", err)
	}
	if info.Size() != int64(dumpSize) {
		err := fmt.Errorf("expected %d bytes, got %d", dumpSize, info.Size())
		ui.PrintFailure("Memory dump incomplete", err, []string{
			"The region may be partially unreadable",
		})
		return err
	}

	ui.PrintSuccess("Memory dump complete", map[string]string{
		"Output": dumpOutput,
		"Size":   fmt.Sprintf("%s (verified)", ui.FormatBytes(info.Size())),
		"Region": fmt.Sprintf("%#x - %#x", dumpStart, dumpStart+uint64(dumpSize)),
	})

	return nil
}

// resetCmd implements the 'reset' command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the target",
	Long: `Reset the target via the debug server.

Typically run after 'load' so the firmware boots from the image just
written. The session detaches at the end, which lets the target run.`,
	Example: `  extflash reset --profile devboard`,
	RunE:    runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := resolveProfile(cmd); err != nil {
		return err
	}

	_ = logging.InitializeFromEnv()
	logger := logging.GetLogger()
	defer logging.Sync()

	cfg, err := sessionConfig()
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	sess, err := gdb.Start(ctx, cfg, logger)
	if err != nil {
		ui.PrintFailure("Debugger startup failed", err, []string{
			"Check the setup: extflash verify-setup",
		})
		printStartupOutput(err)
		return err
	}
	defer sess.Shutdown(context.Background())

	if err := sess.MonitorReset(ctx); err != nil {
		ui.PrintFailure("Target reset failed", err, []string{
			"Check the debug server supports 'monitor reset'",
			"Check the GDB server is still connected",
		})
		return err
	}
	// Give the debug server a moment to settle before detaching.
	if err := sess.MonitorSleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}

	ui.PrintSuccess("Target reset", map[string]string{
		"Remote": fmt.Sprintf("%s:%d", remoteHost, remotePort),
	})
	return nil
}

// profileCmd groups the profile management subcommands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage target profiles",
	Long: `Manage named target profiles.

A profile stores everything a transfer needs to know about one target:
the debugger endpoint, the RAM staging buffer, the flash base, the copy
routine's symbol, and the retry policy. Profiles live in the user
config file and are selected with --profile.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		if len(registry.Profiles) == 0 {
			fmt.Println("No profiles configured. Create one with 'extflash profile set <name>'.")
			return nil
		}

		names := make([]string, 0, len(registry.Profiles))
		for name := range registry.Profiles {
			names = append(names, name)
		}
		sort.Strings(names)

		defaultName := ""
		if registry.Preferences != nil {
			defaultName = registry.Preferences.DefaultProfile
		}

		for _, name := range names {
			p := registry.Profiles[name]
			marker := " "
			if name == defaultName {
				marker = "*"
			}
			fmt.Printf("%s %-16s ram=%#x (%s)  flash=%#x  copy=%s  remote=%s:%d\n",
				marker, name,
				p.RAMBufferAddr, ui.FormatBytes(int64(p.RAMBufferSize)),
				p.FlashBase, p.CopyFunction,
				hostOrDefault(p.RemoteHost), portOrDefault(p.RemotePort))
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a profile from flags",
	Example: `  extflash profile set devboard \
      --symbol-file firmware.elf \
      --ram-buffer-addr 0x200b76a8 --ram-buffer-size 65536 \
      --flash-base 0x90000000 --copy-function copy_ram_to_flash \
      --default`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		name := args[0]
		profile := registry.EnsureProfile(name)

		flags := cmd.Flags()
		if flags.Changed("gdb-path") {
			profile.GDBPath = gdbPath
		}
		if flags.Changed("symbol-file") {
			profile.SymbolFile = symbolFile
		}
		if flags.Changed("remote-host") {
			profile.RemoteHost = remoteHost
		}
		if flags.Changed("remote-port") {
			profile.RemotePort = remotePort
		}
		if flags.Changed("ram-buffer-addr") {
			profile.RAMBufferAddr = ramBufferAddr
		}
		if flags.Changed("ram-buffer-size") {
			profile.RAMBufferSize = ramBufferSize
		}
		if flags.Changed("flash-base") {
			profile.FlashBase = flashBase
		}
		if flags.Changed("copy-function") {
			profile.CopyFunction = copyFunction
		}
		if flags.Changed("chunk-size") {
			profile.ChunkSize = chunkSize
		}
		if flags.Changed("max-attempts") {
			profile.MaxAttempts = maxAttempts
		}
		if flags.Changed("timeout") {
			timeout, err := time.ParseDuration(gdbTimeout)
			if err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			profile.ResponseMS = int(timeout.Milliseconds())
		}

		if setDefault {
			if err := registry.SetDefaultProfile(name); err != nil {
				return err
			}
		}

		if err := registry.Save(); err != nil {
			return err
		}

		fmt.Printf("Profile %q saved.\n", name)
		return nil
	},
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Select the profile used when --profile is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if err := registry.SetDefaultProfile(args[0]); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("Default profile set to %q.\n", args[0])
		return nil
	},
}

func init() {
	profileSetCmd.Flags().StringVar(&symbolFile, "symbol-file", "", "ELF file providing the copy routine's symbol")
	profileSetCmd.Flags().Uint64Var(&ramBufferAddr, "ram-buffer-addr", 0, "RAM staging buffer address")
	profileSetCmd.Flags().IntVar(&ramBufferSize, "ram-buffer-size", 0, "RAM staging buffer size in bytes")
	profileSetCmd.Flags().Uint64Var(&flashBase, "flash-base", 0, "External flash base address")
	profileSetCmd.Flags().StringVar(&copyFunction, "copy-function", "", "Symbol of the RAM-to-flash copy routine")
	profileSetCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Transfer unit in bytes")
	profileSetCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "Attempts per chunk")
	profileSetCmd.Flags().BoolVar(&setDefault, "default", false, "Also make this the default profile")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)
}

func hostOrDefault(host string) string {
	if host == "" {
		return "localhost"
	}
	return host
}

func portOrDefault(port int) int {
	if port == 0 {
		return 3333
	}
	return port
}
