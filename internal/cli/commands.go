// Package cli provides command definitions for docsync.
package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/mdtree/docsync/internal/backup"
	"github.com/mdtree/docsync/internal/behavior"
	"github.com/mdtree/docsync/internal/config"
	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/progress"
	"github.com/mdtree/docsync/internal/safety"
	"github.com/mdtree/docsync/internal/syncer"
	"github.com/mdtree/docsync/internal/transform"
	"github.com/mdtree/docsync/internal/ui"
)

// datasetRoot resolves the --root flag to an absolute slash path.
func datasetRoot(cmd *cli.Command) (string, error) {
	root, err := filepath.Abs(cmd.String("root"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve dataset root: %w", err)
	}
	return filepath.ToSlash(root), nil
}

func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "behavior",
			Aliases: []string{"b"},
			Usage:   "Conflict behavior when the destination exists (overwrite, skip, mirror)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Collapse nested source directories into single-level names",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Prefix prepended to transformed directory names",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of parallel link-rewrite workers",
		},
		&cli.BoolFlag{
			Name:  "no-backup",
			Usage: "Skip automatic snapshot before destructive steps",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Disable the progress display",
		},
	}
}

func copyCommand() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy a file or directory within the dataset",
		UsageText: "docsync copy [options] <source> <target>",
		Description: `Copy a markdown file or directory tree to a new location inside
   the dataset root. Links inside copied files are rewritten so they
   keep pointing at the right targets from the new location.

   Examples:
     docsync copy guides archive/guides
     docsync copy --flatten --prefix ref- skills imported`,
		Flags: syncFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			return runSync(cmd, safety.OpCopy)
		},
	}
}

func moveCommand() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a file or directory within the dataset",
		UsageText: "docsync move [options] <source> <target>",
		Description: `Move a markdown file or directory tree to a new location inside
   the dataset root. Every markdown file in the dataset that linked to
   the moved content is rewritten to follow it.

   Examples:
     docsync move drafts/intro.md guides/intro.md
     docsync move --behavior skip guides archive`,
		Flags: syncFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			return runSync(cmd, safety.OpMove)
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check an operation without touching any files",
		UsageText: "docsync validate [options] <source> <target>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "move",
				Usage: "Validate as a move instead of a copy",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return errors.New("validate requires exactly 2 arguments: <source> <target>")
			}

			root, err := datasetRoot(cmd)
			if err != nil {
				return err
			}

			op := safety.OpCopy
			if cmd.Bool("move") {
				op = safety.OpMove
			}

			engine := syncer.New(fsys.New(), root)
			if err := engine.Validate(args.Get(0), args.Get(1), op); err != nil {
				fmt.Println(ui.StatusError(err.Error()))
				return err
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s %s -> %s is valid", op, args.Get(0), args.Get(1))))
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect or initialize dataset configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Display the effective configuration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					root, err := datasetRoot(cmd)
					if err != nil {
						return err
					}
					cfg, err := config.Load(root)
					if err != nil {
						return fmt.Errorf("failed to load configuration: %w", err)
					}
					data, err := yaml.Marshal(cfg)
					if err != nil {
						return fmt.Errorf("failed to render configuration: %w", err)
					}
					fmt.Printf("# %s\n", config.FilePath(root))
					fmt.Print(string(data))
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file to the dataset root",
				Action: func(_ context.Context, cmd *cli.Command) error {
					root, err := datasetRoot(cmd)
					if err != nil {
						return err
					}
					path := config.FilePath(root)
					if err := config.Default().Save(root); err != nil {
						return fmt.Errorf("failed to write configuration: %w", err)
					}
					fmt.Println(ui.StatusSuccess("wrote " + path))
					return nil
				},
			},
		},
	}
}

// runSync executes a copy or move and renders the result report.
func runSync(cmd *cli.Command, op safety.Op) error {
	args := cmd.Args()
	if args.Len() != 2 {
		return fmt.Errorf("%s requires exactly 2 arguments: <source> <target>", op)
	}

	root, err := datasetRoot(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOutputConfig(cfg)

	opts := buildOptions(cmd, cfg, root)

	var bar *progress.Bar
	if cfg.Output.Progress && !cmd.Bool("no-progress") {
		bar = progress.Simple(-1, fmt.Sprintf("%s %s", op, args.Get(0)))
		opts.Report = bar.Reporter()
	}

	engine := syncer.New(fsys.New(), root)

	var result *syncer.Result
	switch op {
	case safety.OpMove:
		result, err = engine.Move(args.Get(0), args.Get(1), opts)
	default:
		result, err = engine.Copy(args.Get(0), args.Get(1), opts)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Println(ui.StatusError(err.Error()))
		return err
	}

	printResult(op, result)
	return nil
}

// applyOutputConfig folds file-level output settings into the process
// state. Flags handled in the Before hook already won by this point.
func applyOutputConfig(cfg *config.Config) {
	if cfg.Output.Color == "never" {
		ui.DisableColors()
	}
}

// buildOptions merges configuration defaults with command-line flags.
// Flags win whenever both specify the same setting.
func buildOptions(cmd *cli.Command, cfg *config.Config, root string) syncer.Options {
	opts := syncer.DefaultOptions()

	opts.DefaultBehavior = cfg.DefaultBehavior()
	if b, ok := behavior.Parse(cmd.String("behavior")); ok {
		opts.DefaultBehavior = b
	}

	opts.FolderBehavior = cfg.BehaviorTable()

	opts.Transform = transform.Options{
		Flatten: cmd.Bool("flatten"),
		Prefix:  cmd.String("prefix"),
	}

	if cfg.Rewrite.Concurrency > 0 {
		opts.Concurrency = cfg.Rewrite.Concurrency
	}
	if n := cmd.Int("concurrency"); n > 0 {
		opts.Concurrency = int(n)
	}

	if cfg.Backup.Enabled && !cmd.Bool("no-backup") {
		mgr := backup.NewManager(fsys.New(), root, cfg.Backup.MaxBackups)
		opts.Snapshot = mgr.SnapshotFunc()
	}

	return opts
}

// printResult renders the post-operation report box and a status line.
func printResult(op safety.Op, result *syncer.Result) {
	title := fmt.Sprintf("%s %s -> %s", op, result.Source, result.Target)
	fmt.Println(ui.RenderReport(title, []ui.ReportLine{
		{Label: "created", Count: len(result.Created())},
		{Label: "updated", Count: len(result.Updated())},
		{Label: "skipped", Count: len(result.Skipped())},
		{Label: "deleted", Count: len(result.Deleted())},
		{Label: "failed", Count: len(result.Failed())},
	}))

	for _, f := range result.Failed() {
		fmt.Println(ui.StatusError(fmt.Sprintf("%s: %v", f.Path, f.Error)))
	}
	for name, renamed := range result.SkillNameMap {
		fmt.Println(ui.Dim(fmt.Sprintf("renamed skill %s -> %s", name, renamed)))
	}

	if result.Success() {
		fmt.Println(ui.StatusSuccess(result.Summary()))
	} else {
		fmt.Println(ui.StatusWarning(result.Summary()))
	}
}
