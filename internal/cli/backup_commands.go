package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mdtree/docsync/internal/backup"
	"github.com/mdtree/docsync/internal/config"
	"github.com/mdtree/docsync/internal/fsys"
	"github.com/mdtree/docsync/internal/ui"
)

// backupManager builds a Manager for the dataset named by --root.
func backupManager(cmd *cli.Command) (*backup.Manager, error) {
	root, err := datasetRoot(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return backup.NewManager(fsys.New(), root, cfg.Backup.MaxBackups), nil
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Manage pre-operation snapshots",
		Commands: []*cli.Command{
			backupListCommand(),
			backupRestoreCommand(),
			backupPruneCommand(),
			backupDeleteCommand(),
		},
	}
}

func backupListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List snapshots, newest first",
		Action: func(_ context.Context, cmd *cli.Command) error {
			mgr, err := backupManager(cmd)
			if err != nil {
				return err
			}
			backups, err := mgr.List()
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}
			if len(backups) == 0 {
				fmt.Println("No backups found")
				return nil
			}
			for _, b := range backups {
				fmt.Printf("%s  %s  %d file(s)  %d bytes\n",
					ui.Bold(b.ID),
					b.CreatedAt.Format(time.RFC3339),
					len(b.Files),
					b.Size,
				)
			}
			return nil
		},
	}
}

func backupRestoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore snapshot contents into the dataset",
		UsageText: "docsync backup restore <id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("restore requires exactly 1 argument: <id>")
			}
			mgr, err := backupManager(cmd)
			if err != nil {
				return err
			}
			id := cmd.Args().Get(0)
			if err := mgr.Restore(id); err != nil {
				return fmt.Errorf("failed to restore backup %s: %w", id, err)
			}
			fmt.Println(ui.StatusSuccess("restored " + id))
			return nil
		},
	}
}

func backupPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete snapshots beyond the retention limit",
		Action: func(_ context.Context, cmd *cli.Command) error {
			mgr, err := backupManager(cmd)
			if err != nil {
				return err
			}
			pruned, err := mgr.Prune()
			if err != nil {
				return fmt.Errorf("failed to prune backups: %w", err)
			}
			if len(pruned) == 0 {
				fmt.Println("Nothing to prune")
				return nil
			}
			for _, id := range pruned {
				fmt.Println(ui.Dim("deleted " + id))
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("pruned %d backup(s)", len(pruned))))
			return nil
		},
	}
}

func backupDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a single snapshot",
		UsageText: "docsync backup delete <id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("delete requires exactly 1 argument: <id>")
			}
			mgr, err := backupManager(cmd)
			if err != nil {
				return err
			}
			id := cmd.Args().Get(0)
			if err := mgr.Delete(id); err != nil {
				return fmt.Errorf("failed to delete backup %s: %w", id, err)
			}
			fmt.Println(ui.StatusSuccess("deleted " + id))
			return nil
		},
	}
}
