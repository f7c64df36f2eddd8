// Package cmd provides the command-line interface of optrace.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/metatypes"
	"github.com/sarchlab/optrace/patching"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "optrace",
	Short: "optrace intercepts the operators of a tensor framework.",
	Long: `optrace patches the operator namespaces of a tensor framework, ` +
		`traces the calls made by a model, and restores the original ` +
		`operators afterwards.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./optrace.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false,
		"log patching details")
	rootCmd.PersistentFlags().String("metatypes", "",
		"YAML file listing the operators to patch")

	for _, key := range []string{"verbose", "metatypes"} {
		err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
		if err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("optrace")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OPTRACE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

func newLogger() *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	if viper.GetBool("verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = cfg.Build()
	}

	if err != nil {
		panic(err)
	}

	return logger
}

func loadMetatypes() (patching.MetatypeList, error) {
	path := viper.GetString("metatypes")
	if path == "" {
		return metatypes.Default(), nil
	}

	return metatypes.LoadFile(path)
}
