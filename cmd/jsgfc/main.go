// Command jsgfc compiles, parses, and matches JSGF grammars.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/drmfinlay/jsgf-go"
	"github.com/drmfinlay/jsgf-go/theme"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jsgfc",
	Short: "jsgfc parses, compiles and matches JSGF grammars",
}

func init() {
	rootCmd.AddCommand(compileCmd, parseCmd, matchCmd, watchCmd)
}

func loadGrammar(path string) (*jsgf.Grammar, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jsgf.ParseGrammar(string(content))
}

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "parse a grammar and re-emit it as canonical JSGF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGrammar(args[0])
		if err != nil {
			return fmt.Errorf("failed to load grammar `%s`: %w", args[0], err)
		}
		fmt.Print(g.Compile())
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "parse a grammar and print its tree structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGrammar(args[0])
		if err != nil {
			return fmt.Errorf("failed to load grammar `%s`: %w", args[0], err)
		}
		for _, r := range g.Rules() {
			fmt.Printf("<%s> public=%v\n", r.Name(), r.IsPublic())
			printTree(r.Expansion(), 1)
		}
		return nil
	},
}

func printTree(e *jsgf.Expansion, depth int) {
	if e == nil {
		return
	}
	fmt.Printf("%s%s %q tags=%v\n", strings.Repeat("  ", depth), e.Kind(), e.Text(), e.Tags())
	for _, c := range e.Children() {
		printTree(c, depth+1)
	}
}

var matchPaletteFlag string

var matchCmd = &cobra.Command{
	Use:   "match <file> [utterance...]",
	Short: "match utterances against a grammar's rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGrammar(args[0])
		if err != nil {
			return fmt.Errorf("failed to load grammar `%s`: %w", args[0], err)
		}
		var palette *theme.Palette
		if matchPaletteFlag != "" {
			pj, err := loadPalette(matchPaletteFlag)
			if err != nil {
				return fmt.Errorf("failed to load palette `%s`: %w", matchPaletteFlag, err)
			}
			palette = pj
		}
		if len(args) > 1 {
			for _, utterance := range args[1:] {
				matchOne(g, palette, utterance)
			}
			return nil
		}
		return matchRepl(g, palette)
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchPaletteFlag, "palette", "", "JSON palette file for tag highlighting")
}

func loadPalette(path string) (*theme.Palette, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return theme.ParsePaletteJSON(content)
}

func matchOne(g *jsgf.Grammar, palette *theme.Palette, utterance string) {
	rules := g.FindMatchingRules(utterance)
	if len(rules) == 0 {
		fmt.Printf("%q: no match\n", utterance)
		return
	}
	for _, r := range rules {
		node, tail, ok := r.FindMatchingPart(utterance)
		fmt.Printf("%q matches <%s>", utterance, r.Name())
		if tail != "" {
			fmt.Printf(" (tail: %q)", tail)
		}
		fmt.Println()
		if ok && node != nil && len(node.Tags()) > 0 {
			fmt.Printf("  tag: %s\n", strings.Join(node.Tags(), ", "))
		}
		if palette != nil {
			for _, span := range palette.Spans(r.Expansion()) {
				fmt.Printf("  %s: tokens[%d:%d]\n", span.Tag, span.Span.Start, span.Span.End)
			}
		}
	}
}

func matchRepl(g *jsgf.Grammar, palette *theme.Palette) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		words, err := shellwords.Parse(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse input: %v\n", err)
			fmt.Print("> ")
			continue
		}
		matchOne(g, palette, strings.Join(words, " "))
		fmt.Print("> ")
	}
	fmt.Println()
	return scanner.Err()
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "print every grammar in a directory, then reload changed grammar files in the background (reloads are not printed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := jsgf.NewLoader()
		set, err := loader.LoadDir(args[0], false)
		if err != nil {
			return fmt.Errorf("failed to load `%s`: %w", args[0], err)
		}
		for name := range set.Names() {
			g, _ := set.Get(name)
			fmt.Print(g.Compile())
		}
		w, err := jsgf.Watch(args[0], set)
		if err != nil {
			return fmt.Errorf("failed to watch `%s`: %w", args[0], err)
		}
		defer w.Close()
		fmt.Fprintf(os.Stderr, "watching %s, press ctrl-c to stop\n", args[0])
		select {}
	},
}
