package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ayusman/tecla/internal/config"
	"github.com/ayusman/tecla/internal/store"
)

var (
	forceFlag   bool
	limitFlag   int
	sessionFlag string
)

var initLayoutCmd = &cobra.Command{
	Use:   "init-layout [path]",
	Short: "Write the default seven-key layout to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		path := settings.Layout
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceFlag {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("Wrote default layout")
		return nil
	},
}

var initSettingsCmd = &cobra.Command{
	Use:   "init-settings [path]",
	Short: "Write the default runtime settings to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := settingsFlag
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceFlag {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}

		if err := config.SaveSettings(path, config.DefaultSettings()); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("Wrote default settings")
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the keys of the resolved layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		l := config.Load(settings.Layout)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSOUND\tX1\tY1\tX2\tY2")
		for _, k := range l.Keys {
			z := k.Zone
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", k.ID, k.Sound, z.X1, z.Y1, z.X2, z.Y2)
		}
		fmt.Fprintf(w, "\nwindow %dx%d\n", l.Width, l.Height)
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recently played notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if settings.Database == "" {
			return errors.New("no database configured")
		}

		st, err := store.New(settings.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		notes, err := st.Notes().ListRecent(sessionFlag, limitFlag)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tKEY\tSIDE\tSOUND\tX\tY")
		for _, n := range notes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
				n.PlayedAt.Local().Format(time.DateTime), n.KeyID, n.Side, n.Sound, n.X, n.Y)
		}
		return w.Flush()
	},
}

func init() {
	initLayoutCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing file")
	initSettingsCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing file")
	historyCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Number of notes to show")
	historyCmd.Flags().StringVar(&sessionFlag, "session", "", "Only show notes of this session id")
}
