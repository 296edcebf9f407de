package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
)

// sourceEmbedded selects the schema compiled into the binary.
const sourceEmbedded = "embedded"

// migrator is the schema tooling behind the migrate commands. Tests replace
// it.
type migrator struct {
	up     func(dbURL, source string) error
	down   func(dbURL, source string, steps int) error
	status func(dbURL, source string) (uint, bool, error)
	force  func(dbURL, source string, version int) error
}

var migrations = migrator{
	up:     postgres.RunMigrations,
	down:   postgres.RollbackMigration,
	status: postgres.MigrationStatus,
	force:  postgres.ForceMigrationVersion,
}

// MigrationState is the output of migrate status.
type MigrationState struct {
	Version uint   `json:"version"`
	Dirty   bool   `json:"dirty"`
	Source  string `json:"source"`
}

func (s MigrationState) String() string {
	state := "clean"
	if s.Dirty {
		state = "dirty"
	}
	return fmt.Sprintf("version %d (%s) from %s", s.Version, state, s.Source)
}

// NewMigrateCmd manages the database schema.
func NewMigrateCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&source, "source", "",
		`migration source URL, or "embedded" for the schema built into the binary (default: database.migrations_path)`)

	resolve := func(cmd *cobra.Command) (dsn, src string, err error) {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return "", "", err
		}
		src = cliCtx.Config.Database.MigrationsPath
		switch source {
		case "":
		case sourceEmbedded:
			src = ""
		default:
			src = source
		}
		return cliCtx.Config.Database.DSN(), src, nil
	}
	describe := func(src string) string {
		if src == "" {
			return sourceEmbedded
		}
		return src
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, src, err := resolve(cmd)
			if err != nil {
				return err
			}
			if err := migrations.up(dsn, src); err != nil {
				return err
			}
			PrintSuccess(cmd, "schema is up to date")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, src, err := resolve(cmd)
			if err != nil {
				return err
			}
			if err := migrations.down(dsn, src, steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, src, err := resolve(cmd)
			if err != nil {
				return err
			}
			version, dirty, err := migrations.status(dsn, src)
			if err != nil {
				return err
			}
			return PrintResult(cmd, MigrationState{Version: version, Dirty: dirty, Source: describe(src)})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running it, to clear a dirty state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < -1 {
				return fmt.Errorf("invalid version %q", args[0])
			}
			dsn, src, err := resolve(cmd)
			if err != nil {
				return err
			}
			if err := migrations.force(dsn, src, version); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", version))
			return nil
		},
	})
	return cmd
}

//Personal.AI order the ending
