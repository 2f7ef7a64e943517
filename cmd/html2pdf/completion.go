package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/markup"
	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long   string
	Short  string
	Desc   string
	Bool   bool     // takes no value
	Values []string // enum values
	Files  string   // file glob, e.g. "*.yaml"
}

// commandDef describes a command for completion.
type commandDef struct {
	Name       string
	Desc       string
	Flags      []flagDef
	TakesFiles bool
}

// flagValues holds the fixed value sets offered for enum flags.
var flagValues = map[string][]string{
	"backend":     {html2pdf.BackendRod, html2pdf.BackendChromedp},
	"page-size":   {html2pdf.PageSizeA4, html2pdf.PageSizeLetter, html2pdf.PageSizeLegal, html2pdf.PageSizeTabloid, html2pdf.PageSizeA3, html2pdf.PageSizeA5},
	"orientation": {html2pdf.OrientationPortrait, html2pdf.OrientationLandscape},
	"log-level":   {"debug", "info", "warn", "error"},
	"code-style":  {markup.DefaultStyle, "monokai", "dracula", "solarized-light", "vs"},
}

// flagFiles maps file-valued flags to their glob.
var flagFiles = map[string]string{
	"config":      "*.yaml",
	"env-file":    "*",
	"log-file":    "*.log",
	"header-file": "*.html",
	"footer-file": "*.html",
	"browser-bin": "*",
}

// extractFlags lists the flags registered in fs.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var defs []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		defs = append(defs, flagDef{
			Long:   f.Name,
			Short:  f.Shorthand,
			Desc:   f.Usage,
			Bool:   f.Value.Type() == "bool",
			Values: flagValues[f.Name],
			Files:  flagFiles[f.Name],
		})
	})
	return defs
}

// getCommands returns the command registry. Flags come from the same
// FlagSets the commands parse with.
func getCommands() []commandDef {
	return []commandDef{
		{Name: "convert", Desc: "Convert HTML or Markdown files to PDF", Flags: extractFlags(newConvertFlagSet(&convertFlags{})), TakesFiles: true},
		{Name: "serve", Desc: "Run the HTTP conversion API", Flags: extractFlags(newServeFlagSet(&serveFlags{}))},
		{Name: "doctor", Desc: "Check the browser setup", Flags: extractFlags(newDoctorFlagSet(&doctorFlags{}))},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script"},
	}
}

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	switch shell {
	case ShellBash:
		return generateBash(w, cmds)
	case ShellZsh:
		fmt.Fprintln(w, "#compdef html2pdf")
		fmt.Fprintln(w, "autoload -U +X bashcompinit && bashcompinit")
		return generateBash(w, cmds)
	case ShellFish:
		return generateFish(w, cmds)
	case ShellPowerShell:
		return generatePowerShell(w, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
}

func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

func flagWords(flags []flagDef) string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return strings.Join(words, " ")
}

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# bash completion for html2pdf\n")
	b.WriteString("_html2pdf() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(cmds))
	b.WriteString("        return\n    fi\n\n")

	// Values for the previous flag, shared by every command.
	b.WriteString("    case \"$prev\" in\n")
	seen := map[string]bool{}
	var valueFlags []flagDef
	for _, c := range cmds {
		for _, f := range c.Flags {
			if !seen[f.Long] && (len(f.Values) > 0 || f.Files != "") {
				seen[f.Long] = true
				valueFlags = append(valueFlags, f)
			}
		}
	}
	sort.Slice(valueFlags, func(i, j int) bool { return valueFlags[i].Long < valueFlags[j].Long })
	for _, f := range valueFlags {
		if len(f.Values) > 0 {
			fmt.Fprintf(&b, "        --%s) COMPREPLY=($(compgen -W %q -- \"$cur\")); return ;;\n", f.Long, strings.Join(f.Values, " "))
		} else {
			fmt.Fprintf(&b, "        --%s) COMPREPLY=($(compgen -f -- \"$cur\")); return ;;\n", f.Long)
		}
	}
	b.WriteString("        --output|-o) COMPREPLY=($(compgen -f -- \"$cur\")); return ;;\n")
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"$cmd\" in\n")
	for _, c := range cmds {
		switch {
		case c.Name == "help":
			fmt.Fprintf(&b, "        help) COMPREPLY=($(compgen -W %q -- \"$cur\")) ;;\n", commandNames(cmds))
		case c.Name == "completion":
			b.WriteString("        completion) COMPREPLY=($(compgen -W \"bash zsh fish powershell\" -- \"$cur\")) ;;\n")
		case len(c.Flags) > 0:
			fmt.Fprintf(&b, "        %s)\n", c.Name)
			if c.TakesFiles {
				b.WriteString("            if [[ \"$cur\" != -* ]]; then\n")
				b.WriteString("                COMPREPLY=($(compgen -f -X '!*.@(html|htm|md|markdown)' -- \"$cur\") $(compgen -d -- \"$cur\"))\n")
				b.WriteString("                return\n")
				b.WriteString("            fi\n")
			}
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\")) ;;\n", flagWords(c.Flags))
		}
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("shopt -s extglob 2>/dev/null\n")
	b.WriteString("complete -o filenames -F _html2pdf html2pdf\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# fish completion for html2pdf\n")
	b.WriteString("complete -c html2pdf -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c html2pdf -n __fish_use_subcommand -a %s -d %s\n", c.Name, fishQuote(c.Desc))
	}
	b.WriteString("complete -c html2pdf -n '__fish_seen_subcommand_from convert' -F -a '(__fish_complete_suffix .html .htm .md .markdown)'\n")
	b.WriteString("complete -c html2pdf -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish powershell'\n")

	for _, c := range cmds {
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c html2pdf -n '__fish_seen_subcommand_from %s' -l %s", c.Name, f.Long)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			switch {
			case len(f.Values) > 0:
				fmt.Fprintf(&b, " -x -a %s", fishQuote(strings.Join(f.Values, " ")))
			case f.Files != "":
				b.WriteString(" -r -F")
			case !f.Bool:
				b.WriteString(" -x")
			}
			fmt.Fprintf(&b, " -d %s\n", fishQuote(f.Desc))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func fishQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func generatePowerShell(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	b.WriteString("# PowerShell completion for html2pdf\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName html2pdf -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n")
	b.WriteString("    $words = $commandAst.CommandElements | ForEach-Object { $_.ToString() }\n")
	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s' = @(", c.Name)
		var quoted []string
		for _, word := range strings.Fields(flagWords(c.Flags)) {
			quoted = append(quoted, "'"+word+"'")
		}
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")\n")
	}
	b.WriteString("    }\n")
	b.WriteString("    if ($words.Count -lt 2 -or ($words.Count -eq 2 -and $wordToComplete)) {\n")
	fmt.Fprintf(&b, "        $candidates = '%s' -split ' '\n", commandNames(cmds))
	b.WriteString("    } elseif ($flags.ContainsKey($words[1])) {\n")
	b.WriteString("        $candidates = $flags[$words[1]]\n")
	b.WriteString("    } else {\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n")
	b.WriteString("    $candidates | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		return usageError(err)
	}
	return nil
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: html2pdf completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells: bash, zsh, fish, powershell")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash:       eval \"$(html2pdf completion bash)\"       # in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:        eval \"$(html2pdf completion zsh)\"        # in ~/.zshrc")
	fmt.Fprintln(w, "  Fish:       html2pdf completion fish > ~/.config/fish/completions/html2pdf.fish")
	fmt.Fprintln(w, "  PowerShell: html2pdf completion powershell | Out-String | Invoke-Expression")
}
