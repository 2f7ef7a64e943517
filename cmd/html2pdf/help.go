package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert HTML or Markdown files to PDF")
	fmt.Fprintln(w, "  serve      Run the HTTP conversion API")
	fmt.Fprintln(w, "  doctor     Check the browser setup")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'html2pdf help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --backend <s>         Browser backend: rod (default), chromedp")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium binary")
	fmt.Fprintln(w, "      --remote-url <url>    Attach to a running browser")
	fmt.Fprintln(w, "  -t, --timeout <d>         Wait for document body (default 30s)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel conversions (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --env-file <path>     Dotenv file (default .env)")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-file <path>     Also log to a rotated file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

func printPageUsage(w io.Writer) {
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       a4 (default), letter, legal, tabloid, a3, a5")
	fmt.Fprintln(w, "      --orientation <s>     portrait (default), landscape")
	fmt.Fprintln(w, "      --margin <len>        All margins: 1in, 20mm, 2cm, or bare mm")
	fmt.Fprintln(w, "      --margin-top <len>    Also --margin-right, --margin-bottom, --margin-left")
	fmt.Fprintln(w, "      --header <html>       Header template")
	fmt.Fprintln(w, "      --footer <html>       Footer template, e.g. '<span class=\"pageNumber\"></span>'")
	fmt.Fprintln(w, "      --header-file <path>  Read header template from file")
	fmt.Fprintln(w, "      --footer-file <path>  Read footer template from file")
	fmt.Fprintln(w, "      --scale <f>           Rendering scale")
	fmt.Fprintln(w, "      --no-background       Omit background colors and images")
	fmt.Fprintln(w)
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert HTML (.html, .htm) and Markdown (.md, .markdown) files to PDF.")
	fmt.Fprintln(w, "Directories are searched recursively.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output directory, or a .pdf path for one input")
	fmt.Fprintln(w, "      --code-style <s>      Markdown code highlighting style (default github)")
	fmt.Fprintln(w)
	printPageUsage(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP API. Endpoints:")
	fmt.Fprintln(w, "  POST /api/v1/convert        JSON {html, format, options} -> application/pdf")
	fmt.Fprintln(w, "  POST /api/v1/convert/batch  JSON {requests, fail_fast} -> per-item results")
	fmt.Fprintln(w, "  GET  /api/v1/stats          Tab pool and browser session counters")
	fmt.Fprintln(w, "  GET  /health                Liveness")
	fmt.Fprintln(w, "  GET  /docs                  OpenAPI documentation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default :8080)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page flags set the defaults for requests without options.")
	fmt.Fprintln(w)
	printPageUsage(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf doctor [--json] [--probe]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that a browser can be found and started.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print the report as JSON")
	fmt.Fprintln(w, "      --probe               Convert a test page end to end")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: html2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: html2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
