// Command yayul is the cross-assembler's command-line front end. Its
// command tree is built the way the teacher's host/cmds.go builds the
// debugger's command tree, generalized from a REPL's persistent set of
// commands to a one-shot CLI invocation: the process's argument vector
// is joined back into a single line and handed to the same beevik/cmd
// Tree.Lookup the teacher uses for interactive command dispatch.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/beevik/cmd"

	"yayul/assembler"
	"yayul/config"
	"yayul/cuss"
	"yayul/inspect"
	"yayul/symtab"
)

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree("yayul")
	root.AddCommand(cmd.Command{
		Name:        "help",
		Brief:       "Display help for a command",
		Description: "Display help for a command, or list every command if none is given.",
		Usage:       "help [<command>]",
		Data:        cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:  "assemble",
		Brief: "Assemble a source file and print its listing and diagnostics",
		Description: "Run the cross-assembler on the named main source file" +
			" and print the resulting card listing followed by every cuss" +
			" raised during the run. A TOML target file may be given as a" +
			" second argument; without one, the Block II/GAP/MIT default" +
			" target is used.",
		Usage: "assemble <file.agc> [<target.toml>]",
		Data:  cmdAssemble,
	})
	root.AddCommand(cmd.Command{
		Name:  "inspect",
		Brief: "Assemble a source file and browse the result interactively",
		Description: "Run the cross-assembler on the named main source file" +
			" and open an interactive, full-screen browser over the" +
			" resulting listing, symbol table, and cuss log.",
		Usage: "inspect <file.agc> [<target.toml>]",
		Data:  cmdInspect,
	})
	root.AddCommand(cmd.Command{
		Name:        "version",
		Brief:       "Print the assembler version",
		Description: "Print the assembler's version string.",
		Usage:       "version",
		Data:        cmdVersion,
	})

	root.AddShortcut("a", "assemble")
	root.AddShortcut("i", "inspect")
	root.AddShortcut("v", "version")
	root.AddShortcut("?", "help")

	cmds = root
}

const version = "yayul 0.1.0"

func main() {
	line := strings.Join(os.Args[1:], " ")
	if line == "" {
		line = "help"
	}

	sel, err := cmds.Lookup(line)
	switch {
	case err == cmd.ErrNotFound:
		fmt.Fprintln(os.Stderr, "command not found. Try 'yayul help'.")
		os.Exit(1)
	case err == cmd.ErrAmbiguous:
		fmt.Fprintln(os.Stderr, "command is ambiguous.")
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if sel.Command == nil {
		os.Exit(1)
	}
	if sel.Command.Data == nil && sel.Command.Subtree != nil {
		displayCommands(sel.Command.Subtree)
		return
	}

	handler := sel.Command.Data.(func(cmd.Selection) error)
	if err := handler(sel); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func displayCommands(t *cmd.Tree) {
	fmt.Printf("%s commands:\n", t.Title)
	for _, c := range t.Commands {
		if c.Brief != "" {
			fmt.Printf("    %-12s  %s\n", c.Name, c.Brief)
		}
	}
}

func cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		displayCommands(cmds)
		return nil
	}
	s, err := cmds.Lookup(strings.Join(c.Args, " "))
	if err != nil {
		fmt.Println(err)
		return nil
	}
	if s.Command.Usage != "" {
		fmt.Printf("Usage: %s\n\n", s.Command.Usage)
	}
	switch {
	case s.Command.Description != "":
		fmt.Println(s.Command.Description)
	case s.Command.Brief != "":
		fmt.Println(s.Command.Brief)
	}
	return nil
}

func cmdVersion(c cmd.Selection) error {
	fmt.Println(version)
	return nil
}

// assembleResult bundles one AssembleMain run's outputs for the
// command handlers below.
type assembleResult struct {
	mainPath string
	asm      *assembler.Assembler
	cards    []assembler.AssembledCard
	frozen   *symtab.Frozen
	cusses   []cuss.Cuss
}

// assembleFromArgs loads the target config (if named) and runs the
// two-pass pipeline against the requested main file.
func assembleFromArgs(args []string) (assembleResult, error) {
	if len(args) == 0 {
		return assembleResult{}, fmt.Errorf("missing source file argument")
	}
	mainPath := args[0]

	var configPath string
	if len(args) > 1 {
		configPath = args[1]
	}
	target, err := config.Load(configPath)
	if err != nil {
		return assembleResult{}, err
	}

	asm := assembler.New(target)
	cards, frozen, cusses := asm.AssembleMain(mainPath)
	return assembleResult{mainPath: mainPath, asm: asm, cards: cards, frozen: frozen, cusses: cusses}, nil
}

func cmdAssemble(c cmd.Selection) error {
	res, err := assembleFromArgs(c.Args)
	if err != nil {
		return err
	}
	mainPath, cards, cusses := res.mainPath, res.cards, res.cusses

	fmt.Printf("assembling %s\n\n", mainPath)
	for _, ac := range cards {
		if ac.HasRefAddress {
			fmt.Printf("%05o  %05o  %s:%d\n", ac.RefAddress, ac.Word, ac.Source.Source, ac.Source.Line)
		}
	}

	fmt.Println()
	for _, cc := range cusses {
		fmt.Println(cc.String())
	}

	if cuss.IsFatal(cusses) {
		return fmt.Errorf("assembly failed with %d cuss(es)", len(cusses))
	}
	return nil
}

func cmdInspect(c cmd.Selection) error {
	res, err := assembleFromArgs(c.Args)
	if err != nil {
		return err
	}
	browser := inspect.New(res.cards, res.frozen, res.asm.Grid(), res.asm.Memory(), res.cusses)
	return browser.Run()
}
