package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/affect-demo/config"
	"github.com/maastricht-university/affect-demo/orchestrator"
	"github.com/maastricht-university/affect-demo/store"
)

type app struct {
	configPath string
	logLevel   string

	conf  *cfg.Root
	log   *logrus.Logger
	store *store.Store
	p     *orchestrator.Pipeline
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	conf, err := cfg.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		conf.Pipeline.LogLvl = a.logLevel
	}
	a.conf = conf
	a.log = cfg.NewLogger(conf, cmd.ErrOrStderr())
	if conf.File != "" {
		a.log.WithField("file", conf.File).Debug("config loaded")
	}
	return nil
}

// pipeline opens the session store and builds the pipeline on first use.
func (a *app) pipeline() (*orchestrator.Pipeline, error) {
	if a.p != nil {
		return a.p, nil
	}
	if err := a.conf.EnsureDirectories(); err != nil {
		return nil, err
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.p = orchestrator.NewPipeline(a.conf, a.log, orchestrator.WithStore(st))
	return a.p, nil
}

func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(a.conf.Paths.Database)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// close releases the session store. It runs after every command, including
// failed ones, which cobra's post-run hooks skip.
func (a *app) close() error {
	return a.store.Close()
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "affect",
		Short:             "Face, voice and speech emotion analysis demo",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override pipeline.log_level")

	root.AddCommand(
		newAnalyzeCommand(a),
		newFaceCommand(a),
		newVoiceCommand(a),
		newTranscribeCommand(a),
		newFullCommand(a),
		newLiveCommand(a),
		newHistoryCommand(a),
		newConfigCommand(a),
	)
	return root
}

func printReport(cmd *cobra.Command, r *orchestrator.Report) error {
	return orchestrator.WriteReport(cmd.OutOrStdout(), r)
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var showFrames bool
	cmd := &cobra.Command{
		Use:   "analyze <openface.csv>",
		Short: "Build the emotion timeline of an existing OpenFace CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			r, err := p.AnalyzeFace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if showFrames && r.Face != nil {
				fmt.Fprintln(cmd.OutOrStdout(), frameTable(r.Face.Rows()))
			}
			return printReport(cmd, r)
		},
	}
	cmd.Flags().BoolVar(&showFrames, "frames", false, "also print the per-frame table")
	return cmd
}

func newFaceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "face [openface.csv]",
		Short: "Record with OpenFace until the window is closed, then analyze",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			var r *orchestrator.Report
			if len(args) == 1 {
				r, err = p.AnalyzeFace(cmd.Context(), args[0])
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Close the OpenFace window or press 'q' in it to stop recording.")
				r, err = p.RecordFace(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printReport(cmd, r)
		},
	}
}

func newVoiceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "voice [audio.wav]",
		Short: "Detect the emotion in a voice recording",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			r, err := p.Voice(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			return printReport(cmd, r)
		},
	}
}

func newTranscribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe [audio.wav]",
		Short: "Transcribe a recording and detect the emotion in the text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			r, err := p.Transcribe(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			return printReport(cmd, r)
		},
	}
}

func newFullCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Record face and voice together and run every analyzer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recording for %s, starting now...\n", a.conf.AudioDuration())
			r, err := p.Full(cmd.Context())
			if err != nil {
				return err
			}
			return printReport(cmd, r)
		},
	}
}

func newLiveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Print the smoothed facial emotion while OpenFace records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var last string
			return p.Live(cmd.Context(), func(e orchestrator.LiveEvent) {
				if s := string(e.Smoothed); s != last {
					fmt.Fprintf(out, "%8.2fs  %s\n", e.Timestamp, s)
					last = s
				}
			})
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List past sessions, or show the timeline of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				sess, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), segmentTable(sess.Segments))
				return nil
			}
			sessions, err := st.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), sessionTable(sessions))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to list")
	return cmd
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.conf.WriteYAML(cmd.OutOrStdout())
		},
	})
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func formatSeconds(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "s" }
