package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ckwokli/pws/internal/model"
)

// version is overridden at build time with -ldflags "-X ..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pws",
	Short: "pws - claim verification and research jobs on the PWS API",
	Long: `pws splits text into factual claims and checks each one against web
search evidence, or hands the whole text to a remote research job.

Modes:
  search         segment claims, search, score support (default)
  deep_research  run a long-form research task
  task           run a task with a JSON output schema
  findall        run an entity discovery job

pws reports how well claims are supported by what it found. It is not an
oracle: "insufficient" means the evidence was thin, not that a claim is false.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pws %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.pws/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".pws"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv maps PWS_* variables onto config keys, plus the provider
// variables people already have exported.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("pws.api_key", "PWS_API_KEY", "PARALLEL_API_KEY")
	_ = v.BindEnv("pws.base_url", "PWS_BASE_URL")
	_ = v.BindEnv("llm.provider", "PWS_LLM_PROVIDER")
	_ = v.BindEnv("llm.model", "PWS_LLM_MODEL")
	_ = v.BindEnv("llm.api_key", "PWS_LLM_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.base_url", "PWS_LLM_BASE_URL", "OLLAMA_BASE_URL")
	_ = v.BindEnv("server.addr", "PWS_SERVER_ADDR")
	_ = v.BindEnv("http.http_proxy", "HTTP_PROXY")
	_ = v.BindEnv("http.https_proxy", "HTTPS_PROXY")
	_ = v.BindEnv("http.no_proxy", "NO_PROXY")
}

// loadConfig overlays whatever v holds (file, env, flags) on the defaults.
// Keys v does not know keep their default values.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.PWS.APIKey == "" {
		return nil, fmt.Errorf("PWS api key not set (export PWS_API_KEY or set pws.api_key)")
	}
	return cfg, nil
}
