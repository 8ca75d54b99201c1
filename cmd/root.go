package cmd

import (
	"fmt"
	"os"

	"github.com/miniftp/miniftp/cmd/connect"
	"github.com/miniftp/miniftp/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "miniftp",
		Short: "minimal remote-filesystem server and client",
		Long: fmt.Sprintf(`miniftp (v%s)

A minimal remote-filesystem protocol over TCP: a concurrent server exposing
pwd, ls, cd, mkdir, delete, get and put to connected clients, and an
interactive client mirroring the same command surface.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of miniftp",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("miniftp v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(connect.ConnectCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
