package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// applyCommandsFile reads whitespace-separated flags from path and sets
// every flag the command line did not set explicitly.
func applyCommandsFile(cmd *cobra.Command, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read commands file: %w", err)
	}
	return applyCommands(cmd.Flags(), strings.Fields(string(content)))
}

// applyCommands accepts both the attached "-code0file" form and the
// usual "--code0 file" and "--code0=file" forms.
func applyCommands(flags *pflag.FlagSet, tokens []string) error {
	names := flagNames(flags)
	explicit := map[string]bool{}
	flags.Visit(func(f *pflag.Flag) { explicit[f.Name] = true })

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "-") {
			return fmt.Errorf("commands file: unexpected argument %q", tok)
		}

		name, value, hasValue := splitFlag(tok, names)
		flag := flags.Lookup(name)
		if flag == nil && len(name) == 1 {
			flag = flags.ShorthandLookup(name)
		}
		if flag == nil {
			return fmt.Errorf("commands file: unknown flag %q", tok)
		}

		if !hasValue && flag.NoOptDefVal == "" {
			if i+1 >= len(tokens) {
				return fmt.Errorf("commands file: flag %q needs a value", tok)
			}
			i++
			value, hasValue = tokens[i], true
		}
		if !hasValue {
			value = flag.NoOptDefVal
		}

		if explicit[flag.Name] {
			continue
		}
		if err := flags.Set(flag.Name, value); err != nil {
			return fmt.Errorf("commands file: %w", err)
		}
	}

	return nil
}

// splitFlag separates a token into a flag name and an optional value.
func splitFlag(tok string, names []string) (name, value string, hasValue bool) {
	if body, ok := strings.CutPrefix(tok, "--"); ok {
		name, value, hasValue = strings.Cut(body, "=")
		return name, value, hasValue
	}

	body := tok[1:]
	for _, n := range names {
		if rest, ok := strings.CutPrefix(body, n); ok {
			rest = strings.TrimPrefix(rest, "=")
			return n, rest, rest != ""
		}
	}
	return body, "", false
}

// flagNames lists flag names and shorthands, longest first, so that
// attached values match the most specific flag.
func flagNames(flags *pflag.FlagSet) []string {
	var names []string
	flags.VisitAll(func(f *pflag.Flag) {
		names = append(names, f.Name)
		if f.Shorthand != "" {
			names = append(names, f.Shorthand)
		}
	})
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}
