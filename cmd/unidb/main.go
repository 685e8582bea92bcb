package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/connector"
	"github.com/unidb-io/unidb/pkg/factory"
	"github.com/unidb-io/unidb/pkg/logger"
)

var version = "0.1.0"

func main() {
	var configFile, logLevel string

	root := &cobra.Command{
		Use:   "unidb",
		Short: "unidb - one client for PostgreSQL, SQL Server and SQLite",
		Long: `unidb talks to PostgreSQL, Microsoft SQL Server and embedded SQLite
databases through a single connection configuration and prints results in a
uniform columnar JSON format.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel})
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "unidb.yaml", "Path to the connections config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("unidb v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "backends",
		Short: "List supported database backends",
		Run: func(cmd *cobra.Command, args []string) {
			for _, b := range []config.Backend{config.BackendPostgres, config.BackendMSSQL, config.BackendSQLite} {
				fmt.Println(b)
			}
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "ping <connection>",
		Short: "Open a configured connection and check it is alive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(configFile, args[0], func(ctx context.Context, c connector.CRUDConnector) error {
				start := time.Now()
				if !c.IsAlive(ctx) {
					return fmt.Errorf("connection %q did not answer", args[0])
				}
				fmt.Printf("%s: ok (%s)\n", args[0], time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "query <connection> <sql>",
		Short: "Run a query and print the result as columnar JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(configFile, args[0], func(ctx context.Context, c connector.CRUDConnector) error {
				result, err := c.Execute(ctx, args[1])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "exec <connection> <sql>",
		Short: "Run a statement and print the affected row count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(configFile, args[0], func(ctx context.Context, c connector.CRUDConnector) error {
				outcome, err := c.ExecuteUpdate(ctx, args[1])
				if err != nil {
					return err
				}
				fmt.Printf("rows affected: %d\n", outcome.RowsAffected)
				return nil
			})
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withConnector resolves name in the config file, opens the connector,
// runs fn and closes the connector afterwards.
func withConnector(configFile, name string, fn func(context.Context, connector.CRUDConnector) error) error {
	conns, err := config.Load(configFile)
	if err != nil {
		return err
	}
	desc, err := conns.Get(name)
	if err != nil {
		return err
	}

	ctx := context.Background()
	c, err := factory.New(ctx, desc)
	if err != nil {
		return err
	}
	defer c.Close(ctx)

	return fn(ctx, c)
}
