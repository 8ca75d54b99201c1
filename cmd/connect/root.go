package connect

import (
	"net"
	"os"

	cmdUtil "github.com/miniftp/miniftp/cmd/util"
	"github.com/miniftp/miniftp/ftp/client"
	"github.com/miniftp/miniftp/ftp/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	connectCmdConfig = &common.ClientConfig{}
	ConnectCmd       = &cobra.Command{
		Use:     "connect <host> <port>",
		Short:   "Connect to a miniftp server",
		Long:    `Connect to a miniftp server and enter the interactive command loop. Commands are read from standard input until quit or disconnect.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitEnvConfig)

	// add flags
	key := "timeout"
	ConnectCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("The dial timeout in seconds"))

	key = "write-buffer"
	ConnectCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 = OS default)"))

	key = "read-buffer"
	ConnectCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 = OS default)"))

	key = "tcp-nodelay"
	ConnectCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to disable Nagle's algorithm on the connection"))

	key = "tcp-keepalive"
	ConnectCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval for the connection (in seconds, 0 = disabled)"))

	key = "tcp-linger"
	ConnectCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time for the connection (in seconds)"))

	key = "log-level"
	ConnectCmd.PersistentFlags().String(key, "warn", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the client configuration
func processConfig(cmd *cobra.Command, args []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	connectCmdConfig.Endpoint = net.JoinHostPort(args[0], args[1])
	connectCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	connectCmdConfig.LogLevel = viper.GetString("log-level")
	connectCmdConfig.SocketConf = common.SocketConf{
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
	}
	connectCmdConfig.TCPConf = common.TCPConf{
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	// human-readable console logging for the interactive client
	return common.InitLoggers(connectCmdConfig.LogLevel, true)
}

// run connects to the server and enters the interactive loop
func run(_ *cobra.Command, _ []string) error {
	c := client.New(*connectCmdConfig)
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	return c.Run(os.Stdin, os.Stdout)
}
