// Package output holds the pieces of md2html that face the terminal rather
// than the source tree: process exit codes, TTY detection and the lipgloss
// styles shared by prompts and log output.
//
// # Exit Codes
//
//	output.ExitSuccess     // 0: Success
//	output.ExitUserError   // 1: Bad arguments, invalid input/output layout
//	output.ExitSystemError // 2: I/O failure, or one or more files failed to convert
//	output.ExitConflict    // 3: The operator declined to clean the output directory
//
// Commands return *ExitError values; main turns them into the process status
// with GetExitCode.
package output
