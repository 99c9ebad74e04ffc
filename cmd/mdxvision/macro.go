package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// macroFile is the YAML layout used by export and import.
type macroFile struct {
	User   string       `yaml:"user,omitempty"`
	Macros []macroEntry `yaml:"macros"`
}

type macroEntry struct {
	Trigger   string                  `yaml:"trigger"`
	Actions   []domain.IntentEnvelope `yaml:"actions"`
	CreatedAt time.Time               `yaml:"created_at,omitempty"`
}

var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Manage the user's voice macros",
}

var macroListCmd = &cobra.Command{
	Use:   "list",
	Short: "List macros",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine(cmd.Context(), cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		macros := eng.Macros().List()
		if len(macros) == 0 {
			fmt.Fprintln(out, "(no macros)")
			return nil
		}
		for _, m := range macros {
			names := make([]string, len(m.Actions))
			for i, a := range m.Actions {
				names[i] = a.String()
			}
			fmt.Fprintf(out, "%s: %s\n", m.Trigger, strings.Join(names, " → "))
		}
		return nil
	},
}

var macroAddCmd = &cobra.Command{
	Use:   "add <trigger> <command...>",
	Short: "Define a macro from a spoken command",
	Example: `  mdxvision macro add "morning rounds" show worklist then load patient 1`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		if lang == "" {
			lang = "en"
		}

		ctx := cmd.Context()
		eng, cleanup, err := openEngine(ctx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		actions := eng.Parser().Parse(eng.Normalizer().Normalize(strings.Join(args[1:], " "), lang))
		if err := eng.Macros().Register(ctx, args[0], actions); err != nil {
			return err
		}
		m, _ := eng.Macros().Get(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "macro %q saved with %d actions\n", m.Trigger, len(m.Actions))
		return nil
	},
}

var macroDeleteCmd = &cobra.Command{
	Use:   "delete <trigger>",
	Short: "Delete a macro",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, cleanup, err := openEngine(ctx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		if err := eng.Macros().Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "macro %q deleted\n", args[0])
		return nil
	},
}

var macroExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write macros as YAML to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cleanup, err := openEngine(cmd.Context(), cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		doc := macroFile{User: eng.Macros().UserID(), Macros: []macroEntry{}}
		for _, m := range eng.Macros().List() {
			doc.Macros = append(doc.Macros, macroEntry{
				Trigger:   m.Trigger,
				Actions:   domain.ToEnvelopes(m.Actions),
				CreatedAt: m.CreatedAt,
			})
		}

		var w io.Writer = cmd.OutOrStdout()
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[0], err)
			}
			defer f.Close()
			w = f
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode macros: %w", err)
		}
		return enc.Close()
	},
}

var macroImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Register macros from a YAML export",
	Long: `Registers every macro of the file for the configured user. Existing
triggers are skipped unless --replace is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		var doc macroFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		ctx := cmd.Context()
		eng, cleanup, err := openEngine(ctx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		imported, skipped := 0, 0
		for _, entry := range doc.Macros {
			actions, err := domain.FromEnvelopes(entry.Actions)
			if err != nil {
				return fmt.Errorf("macro %q: %w", entry.Trigger, err)
			}
			if replace {
				if err := eng.Macros().Delete(ctx, entry.Trigger); err != nil && !errors.Is(err, domain.ErrMacroNotFound) {
					return err
				}
			}
			err = eng.Macros().Register(ctx, entry.Trigger, actions)
			switch {
			case errors.Is(err, domain.ErrDuplicateTrigger):
				fmt.Fprintf(out, "skipped %q: already defined\n", entry.Trigger)
				skipped++
			case err != nil:
				return err
			default:
				imported++
			}
		}
		fmt.Fprintf(out, "imported %d macros, skipped %d\n", imported, skipped)
		return nil
	},
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(macroCmd)
	macroCmd.AddCommand(macroListCmd, macroAddCmd, macroDeleteCmd, macroExportCmd, macroImportCmd)

	macroAddCmd.Flags().StringP("lang", "l", "en", "Language of the command")
	macroImportCmd.Flags().Bool("replace", false, "Overwrite macros whose trigger already exists")
}
