/*
Package cli provides command-line helpers for the soul command.

Output Formatting:

Commands print results as text, JSON or YAML:

	formatter := cli.NewFormatter(cli.FormatYAML)
	if err := formatter.FormatTo(os.Stdout, snapshot); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors onto process exit codes: 2 for configuration
problems, 1 for everything else.
*/
package cli
