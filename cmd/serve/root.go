package serve

import (
	"net/http"
	"runtime"

	"github.com/VictoriaMetrics/metrics"
	cmdUtil "github.com/miniftp/miniftp/cmd/util"
	"github.com/miniftp/miniftp/ftp/common"
	"github.com/miniftp/miniftp/ftp/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the miniftp server",
		Long:    `Start the miniftp server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is MINIFTP_<flag> (e.g. MINIFTP_POOL_SIZE=8)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitEnvConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address the command listener binds to. The listener is dual-stack and accepts both IPv6 and IPv4-mapped connections"))

	key = "terminate-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address of the out-of-band terminate listener accepting 'TERMINATE <session-id>' messages. Empty disables it"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional address of the Prometheus metrics HTTP endpoint. Empty disables it"))

	key = "root"
	ServeCmd.PersistentFlags().String(key, ".", cmdUtil.WrapString("Directory every session starts in. Must exist at startup"))

	key = "pool-size"
	ServeCmd.PersistentFlags().Int(key, runtime.NumCPU(), cmdUtil.WrapString("Number of worker threads serving connections. A silent client occupies one worker, so this bounds effective concurrency"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 = OS default)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 = OS default)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to disable Nagle's algorithm on accepted connections"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval for accepted connections (in seconds, 0 = disabled)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The linger time for accepted connections (in seconds)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TerminateEndpoint = viper.GetString("terminate-endpoint")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.RootDir = viper.GetString("root")
	serveCmdConfig.PoolSize = viper.GetInt("pool-size")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.SocketConf = common.SocketConf{
		WriteBufferSize: viper.GetInt("write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
	}
	serveCmdConfig.TCPConf = common.TCPConf{
		TCPNoDelay:      viper.GetBool("tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("tcp-linger"),
	}

	return common.InitLoggers(serveCmdConfig.LogLevel, false)
}

// run starts the miniftp server
func run(_ *cobra.Command, _ []string) error {
	log := common.GetLogger("serve")
	log.Info().Msg(serveCmdConfig.String())

	srv, err := server.New(*serveCmdConfig)
	if err != nil {
		return err
	}

	// Bind all listeners before serving so setup failures are fatal at
	// startup only.
	if err := srv.Listen(); err != nil {
		return err
	}
	if err := srv.ListenTerminate(); err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(srv.Serve)
	g.Go(srv.ServeTerminate)

	if serveCmdConfig.MetricsEndpoint != "" {
		g.Go(func() error {
			mux := http.NewServeMux()
			mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
				metrics.WritePrometheus(w, true)
			})
			log.Info().Str("endpoint", serveCmdConfig.MetricsEndpoint).Msg("metrics endpoint listening")
			return http.ListenAndServe(serveCmdConfig.MetricsEndpoint, mux)
		})
	}

	return g.Wait()
}
