package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/osprey-db/osprey/engine"
	"github.com/osprey-db/osprey/server"
)

var (
	dbPath   string
	poolSize int
	addr     string
)

var rootCmd = &cobra.Command{
	Use:   "osprey",
	Short: "osprey is a disk-backed relational storage engine",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := engine.Open(dbPath, poolSize)
		if err != nil {
			return err
		}
		defer func() {
			if err := eng.Close(); err != nil {
				log.Printf("error closing engine: %v", err)
			}
		}()

		return server.Start(eng, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&dbPath, "db", "osprey.db", "path to the db file")
	serveCmd.Flags().IntVar(&poolSize, "pool-size", engine.DEFAULT_POOL_SIZE, "buffer pool frames")
	serveCmd.Flags().StringVar(&addr, "addr", ":4521", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
