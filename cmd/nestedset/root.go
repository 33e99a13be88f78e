package main

import (
	"context"
	"database/sql"

	"github.com/quintans/faults"
	"github.com/quintans/toolkit/log"
	"github.com/spf13/cobra"

	"github.com/quintans/nestedset/db"
	"github.com/quintans/nestedset/nestedset"
)

var logger = log.LoggerFor("github.com/quintans/nestedset/cmd/nestedset")

type category struct {
	nestedset.Record
	ID   int64
	Name string
}

func (c *category) KeyRef() *int64 {
	return &c.ID
}

func (c *category) Payload() []interface{} {
	return []interface{}{&c.Name}
}

// globals are the flags shared by every command
type globals struct {
	configPath string
	driver     string
	dsn        string
	scope      int64
	verbose    bool
}

func (g *globals) config() (*Config, error) {
	cfg, err := ConfigFromFile(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.driver != "" {
		cfg.DriverStr = &g.driver
	}
	if g.dsn != "" {
		cfg.DSNStr = &g.dsn
	}
	return cfg, nil
}

type app struct {
	cfg  *Config
	conn *sql.DB
	tm   *db.TransactionManager
	tree *nestedset.Tree[*category]
}

func openApp(cfg *Config) (*app, error) {
	translator, err := translatorFor(cfg.Driver())
	if err != nil {
		return nil, err
	}
	isolation, err := cfg.Isolation()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(cfg.Driver(), cfg.DSN())
	if err != nil {
		return nil, faults.Wrap(err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, faults.Errorf("connecting to %s: %w", cfg.Driver(), err)
	}
	if cfg.Driver() == "sqlite" {
		// one writer
		conn.SetMaxOpenConns(1)
	}

	tm := db.NewTransactionManager(conn, translator, db.TmWithIsolation(isolation))

	table := db.TABLE(cfg.Table())
	key := table.KEY(cfg.IDColumn())
	scope := table.COLUMN(cfg.ScopeColumn())
	left := table.COLUMN(cfg.LeftColumn())
	right := table.COLUMN(cfg.RightColumn())
	level := table.COLUMN(cfg.LevelColumn())
	name := table.COLUMN(cfg.NameColumn())

	mapping := nestedset.NewMapping(table, key, left, right, level).
		Scoped(scope).
		Payload(name)
	tree, err := nestedset.New[*category](tm, mapping, func() *category {
		return &category{}
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &app{
		cfg:  cfg,
		conn: conn,
		tm:   tm,
		tree: tree,
	}, nil
}

func (a *app) Close() error {
	return a.conn.Close()
}

// find loads a node by id, failing when it does not exist
func (a *app) find(ctx context.Context, id int64) (*category, error) {
	n, ok, err := a.tree.FindByKey(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.Errorf("no node with id %d", id)
	}
	return n, nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:           "nestedset",
		Short:         "Manage category trees stored as nested sets",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.ERROR
			if g.verbose {
				level = log.DEBUG
			}
			log.Register("/", level, log.NewConsoleAppender(false))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "Path to the yaml configuration")
	flags.StringVar(&g.driver, "driver", "", "database/sql driver: sqlite, mysql, postgres or firebirdsql")
	flags.StringVar(&g.dsn, "dsn", "", "Data source name")
	flags.Int64VarP(&g.scope, "scope", "s", 0, "Tree scope")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Log the SQL statements")

	rootCmd.AddCommand(
		newInitCmd(g),
		newRootNodeCmd(g),
		newAddCmd(g),
		newMoveCmd(g),
		newRemoveCmd(g),
		newDropCmd(g),
		newTreeCmd(g),
		newCheckCmd(g),
	)
	return rootCmd
}

// withApp opens the database for the duration of the command
func withApp(g *globals, fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := g.config()
		if err != nil {
			return err
		}
		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, a, cmd, args)
	}
}
