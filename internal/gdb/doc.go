// Package gdb drives an external GDB process over its line-oriented
// text console to move data into an attached embedded target.
//
// The debugger exposes no binary wire protocol to this tool: commands
// go in as text lines, responses come back as free-form text ending in
// a prompt sentinel. Everything structured (restore address ranges,
// function call results) is recovered by pattern matching, so all
// parsing lives behind the Parser/Grammar boundary and the rest of the
// program only ever sees parsed values.
//
// # Session lifecycle
//
//	cfg := gdb.DefaultConfig()
//	cfg.SymbolFile = "firmware.elf"
//	sess, err := gdb.Start(ctx, cfg, logger)
//	if err != nil { ... }
//	defer sess.Shutdown(ctx)
//
//	start, end, err := sess.Restore(ctx, "/tmp/chunk_0000.bin", 0x20010000)
//	sum, err := sess.CallFunction(ctx, "copy_ram_to_flash", flashOffset, length)
//
// Start spawns `gdb -q -nx <elf>`, drains the banner, connects to the
// remote GDB server and disables confirmation prompts. Send is
// strictly turn-based: one command in flight, output accumulated until
// the prompt or the response timeout. Shutdown detaches, quits and
// reaps the subprocess on every exit path so no debugger is ever
// orphaned.
//
// # Grammar
//
// The console output format is a weak contract; Grammar collects the
// patterns in one configurable place so a debugger build that words
// its confirmation lines differently only requires a grammar override,
// not code changes.
//
// # Error taxonomy
//
//   - StartupError: spawn or attach handshake failed (fatal)
//   - TimeoutError: no complete response before the deadline
//     (retryable, carries the partial output)
//   - ParseError: output did not match the grammar; distinct from a
//     command failure, since the command may have succeeded with
//     unexpected formatting (debugger version mismatch)
//   - ExecutionError: the debugger reported the command itself failed
//   - ConnectionError / PrerequisiteError: environment problems found
//     before or during startup
package gdb
