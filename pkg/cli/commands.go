package cli

import (
	"fmt"

	log "github.com/apex/log"
	layers "github.com/justincpresley/layerlist/pkg/layers"
	"github.com/spf13/cobra"
)

func NewAddCommand(opts *RootOptions) *cobra.Command {
	var at int
	cmd := &cobra.Command{
		Use:   "add KEY VALUE",
		Short: "Add a layer, at the front unless --at is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(true, func(l *layers.List[string], _ *layers.Config) error {
				if cmd.Flags().Changed("at") {
					return l.Insert(key(args[0]), args[1], at)
				}
				return l.Add(key(args[0]), args[1])
			})
		},
	}
	cmd.Flags().IntVar(&at, "at", 0, "position to insert at, clamped to the list")
	return cmd
}

func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"delete"},
		Short:   "Remove a layer",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(true, func(l *layers.List[string], cfg *layers.Config) error {
				if !l.Delete(key(args[0])) {
					log.WithField("module", "cli").WithField("list", cfg.List).Warnf("No layer %q.", args[0])
				}
				return nil
			})
		},
	}
}

func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Print the layers from back to front",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(false, func(l *layers.List[string], cfg *layers.Config) error {
				return Render(cmd.OutOrStdout(), opts.Format, cfg.List, l)
			})
		},
	}
}

func NewIndexCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index KEY",
		Short: "Print the position of a layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(false, func(l *layers.List[string], _ *layers.Config) error {
				i, ok := l.Index(key(args[0]))
				if !ok {
					return fmt.Errorf("%w: %q", layers.ErrKeyNotFound, args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), i)
				return nil
			})
		},
	}
}

func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every layer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(true, func(l *layers.List[string], _ *layers.Config) error {
				l.Clear()
				return nil
			})
		},
	}
}

func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the stored list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.session(false, func(l *layers.List[string], cfg *layers.Config) error {
				if err := l.Check(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d layers ok\n", cfg.List, l.Len())
				return nil
			})
		},
	}
}

func NewMoveCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Reorder a layer",
	}
	moves := []struct {
		use, short string
		fn         func(*layers.List[string], string) bool
	}{
		{"forward", "Move a layer one step toward the front", (*layers.List[string]).MoveForward},
		{"backward", "Move a layer one step toward the back", (*layers.List[string]).MoveBackward},
		{"front", "Move a layer to the front", (*layers.List[string]).MoveToFront},
		{"back", "Move a layer to the back", (*layers.List[string]).MoveToBack},
	}
	for _, m := range moves {
		cmd.AddCommand(&cobra.Command{
			Use:   m.use + " KEY",
			Short: m.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.session(true, func(l *layers.List[string], cfg *layers.Config) error {
					k := key(args[0])
					if !l.Has(k) {
						log.WithField("module", "cli").WithField("list", cfg.List).Warnf("No layer %q.", args[0])
						return nil
					}
					if !m.fn(l, k) {
						log.WithField("module", "cli").Infof("%q is already at the %s.", args[0], m.use)
					}
					return nil
				})
			},
		})
	}
	return cmd
}
