// Extflash writes binary images into an embedded target's external
// flash through a GDB-compatible debugger.
//
// The tool drives arm-none-eabi-gdb against a running GDB server
// (OpenOCD, J-Link GDB Server, ...): each chunk of the image is
// restored into a RAM staging buffer, a target-resident routine copies
// it into flash, and the routine's checksum is compared against the
// host's before the next chunk is sent.
//
// Prerequisites:
//
//   - arm-none-eabi-gdb installed and in PATH
//   - a GDB server running and attached to the target
//   - firmware with the RAM-to-flash copy routine loaded, and its ELF
//     available for symbol resolution
//
// See 'extflash --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/extflash/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "extflash",
	Short: "External flash programming via GDB",
	Long: `Write binary images into an embedded target's external flash.

The transfer goes through a RAM staging buffer on the target: the image
is split into chunks, each chunk is restored into RAM over the debugger
connection, and a target-resident routine copies it into flash and
returns a checksum that is verified on the host before advancing.

Target memory layout and transfer policy live in named profiles
(see 'extflash profile'); any value can be overridden per run with
flags.

Use 'extflash verify-setup' to check prerequisites.`,
	Version: version.Version,
	Example: `  # Verify GDB and debug server setup
  extflash verify-setup

  # Transfer an image using the default profile
  extflash load firmware.bin

  # Transfer with an explicit layout, no profile
  extflash load firmware.bin --ram-buffer-addr 0x200b76a8 \
      --ram-buffer-size 65536 --flash-base 0x90000000 \
      --copy-function copy_ram_to_flash --symbol-file firmware.elf

  # Read back a flash region for inspection
  extflash dump --start 0x90000000 --size 65536 --output region.bin`,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("extflash %s (commit: %s)\n", version.Version, version.Commit)
	},
}
