package cli

import (
	"fmt"
	"slices"

	log "github.com/apex/log"
	text "github.com/apex/log/handlers/text"
	layers "github.com/justincpresley/layerlist/pkg/layers"
	"github.com/spf13/cobra"
	norm "golang.org/x/text/unicode/norm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	DB      string
	Backend string
	List    string
	Format  string // "text" | "yaml"
	Verbose bool
}

var ValidFormats = []string{"text", "yaml"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "layerctl",
		Short:        "Edit persisted layer lists",
		Long:         "layerctl inserts, removes and reorders the layers of a named list kept in a bolt or sqlite database.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			log.SetHandler(text.New(cmd.ErrOrStderr()))
			log.SetLevel(log.WarnLevel)
			if opts.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "database backend: bolt|sqlite (overrides config)")
	cmd.PersistentFlags().StringVarP(&opts.List, "list", "l", "", "list name (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))

	return cmd
}

// config merges the config file, if any, with the flags.
func (o *RootOptions) config() (*layers.Config, error) {
	cfg := layers.GetDefaultConfig()
	if o.Config != "" {
		var err error
		if cfg, err = layers.LoadConfig(o.Config); err != nil {
			return nil, err
		}
	}
	if o.DB != "" {
		cfg.Path = o.DB
	}
	if o.Backend != "" {
		cfg.Backend = layers.Backend(o.Backend)
	}
	if o.List != "" {
		cfg.List = o.List
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !o.Verbose {
		log.SetLevel(cfg.Level())
	}
	return cfg, nil
}

// session loads the configured list, runs f and saves the result when
// save is set.
func (o *RootOptions) session(save bool, f func(l *layers.List[string], cfg *layers.Config) error) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	db, err := layers.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open %s database %s: %w", cfg.Backend, cfg.Path, err)
	}
	defer db.Close()

	store := layers.NewStore[string](db)
	l, err := store.Load(cfg.List)
	if err != nil {
		return err
	}
	if err := f(l, cfg); err != nil {
		return err
	}
	if !save {
		return nil
	}
	written, err := store.Save(cfg.List, l)
	if err != nil {
		return err
	}
	log.WithField("module", "cli").WithFields(log.Fields{
		"list":    cfg.List,
		"written": written,
	}).Debug("Session finished.")
	return nil
}

// key normalizes user input so that visually identical names collide.
func key(s string) string {
	return norm.NFC.String(s)
}
