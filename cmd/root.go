// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/config"
	"github.com/xkilldash9x/tubepilot/internal/observability"
)

// NewRootCommand builds a fresh command tree. Each call returns independent
// flag and config state, which keeps tests isolated.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()
	app := &appContext{viper: v}

	rootCmd := &cobra.Command{
		Use:     "tubepilot",
		Short:   "tubepilot drives the video publishing console: upload, edit and comment in batches.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(v, cfgFile); err != nil {
				return err
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "tubepilot"})
				return err
			}
			app.cfg = cfg
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting tubepilot", zap.String("version", Version))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("email", "", "account email (overrides account.email)")
	rootCmd.PersistentFlags().Bool("headful", false, "show the browser window")
	rootCmd.PersistentFlags().String("profile-dir", "", "use a browser profile directory instead of the cookie store")
	_ = v.BindPFlag("account.email", rootCmd.PersistentFlags().Lookup("email"))
	_ = v.BindPFlag("browser.user_data_dir", rootCmd.PersistentFlags().Lookup("profile-dir"))
	rootCmd.SetVersionTemplate(`{{printf "tubepilot version %s\n" .Version}}`)

	rootCmd.AddCommand(
		newUploadCmd(app),
		newUpdateCmd(app),
		newCommentCmd(app),
	)
	return rootCmd
}

// Execute runs the command tree with ctx, which main makes signal-aware.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	config.SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TUBEPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}
