package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"

	appconfig "git-suggester/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect git-suggester configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd.OutOrStdout(), gitDetector())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration files that are read",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigPath(cmd.OutOrStdout(), gitDetector())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the global config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(out io.Writer, detect remoteDetector) error {
	env, err := loadEnvironment(detect)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(env.cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func runConfigPath(out io.Writer, detect remoteDetector) error {
	env, err := loadEnvironment(detect)
	if err != nil {
		return err
	}
	primary := cfgPath
	if primary == "" {
		primary = appconfig.GlobalConfigPath()
	}
	fmt.Fprintf(out, "Global config file: %s\n", primary)
	if rc := env.repoConfig; rc.Complete() {
		fmt.Fprintf(out, "Repo config file (%s): %s\n", rc, appconfig.RepoConfigPath(rc.Owner, rc.Repo))
	}
	return nil
}

func runConfigInit(out io.Writer) error {
	path := cfgPath
	if path == "" {
		path = appconfig.GlobalConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := appconfig.Save(appconfig.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote default configuration to %s\n", path)
	return nil
}
