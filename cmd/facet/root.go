package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/facet"
	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/pkg/model"
)

var rootCmd = &cobra.Command{
	Use:   "facet",
	Short: "Facet evaluates observable, versioned attribute models",
	Long: `Facet compiles YAML model schemas into definitions with typed attributes,
formula derivations and commit/revert branches, and serves them over HTTP.

Every flag can also be set with a FACET_* environment variable
(e.g. FACET_REDIS_ADDR) or in .facet/config.yaml.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default .facet/config.yaml or $HOME/.facet/config.yaml)")
	flags.StringP("model", "m", "", "Model name inside the schema")
	flags.String("log-level", "", "Log level: debug, info, warn or error (default off)")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("store", "", "Record store: memory, file or redis")
	flags.String("dir", "", "Record directory for the file store (default .facet/records)")
	flags.String("redis-addr", "localhost:6379", "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("redis-prefix", "facet", "Prefix of redis keys")
	flags.String("encryption-key", "", "Base64 AES-256 key encrypting stored records")
	flags.StringSlice("fallback-keys", nil, "Older base64 keys still accepted for decryption")
	flags.StringSlice("pii-fields", nil, "Regular expressions of field names masked before storage")

	_ = viper.BindPFlags(flags)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("FACET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(".facet")
		viper.AddConfigPath("$HOME/.facet")
		viper.SetConfigName("config")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if viper.GetString("config") != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

// options resolves the shared settings for schemaPath.
func options(schemaPath string) cli.Options {
	return cli.Options{
		Schema:        schemaPath,
		LogLevel:      viper.GetString("log-level"),
		LogFormat:     viper.GetString("log-format"),
		Store:         viper.GetString("store"),
		Dir:           viper.GetString("dir"),
		RedisAddr:     viper.GetString("redis-addr"),
		RedisPassword: viper.GetString("redis-password"),
		RedisDB:       viper.GetInt("redis-db"),
		RedisPrefix:   viper.GetString("redis-prefix"),
		EncryptionKey: viper.GetString("encryption-key"),
		FallbackKeys:  viper.GetStringSlice("fallback-keys"),
		PIIFields:     viper.GetStringSlice("pii-fields"),
	}
}

// modelName returns --model, or the only model of the schema.
func modelName(env *cli.Environment) (string, error) {
	if name := viper.GetString("model"); name != "" {
		return name, nil
	}
	names := env.Catalog.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("schema declares %d models, pick one with --model (%s)", len(names), strings.Join(names, ", "))
}

// parseSets turns repeated k=v flags into attribute values.
func parseSets(sets []string) (map[string]any, error) {
	values := make(map[string]any, len(sets))
	for _, set := range sets {
		key, raw, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", set)
		}
		v, err := facet.ParseValue(raw)
		if err != nil {
			return nil, err
		}
		values[key] = v
	}
	return values, nil
}

// newModel creates an instance of the selected model from --set values.
func newModel(env *cli.Environment, sets []string) (*model.Model, error) {
	name, err := modelName(env)
	if err != nil {
		return nil, err
	}
	values, err := parseSets(sets)
	if err != nil {
		return nil, err
	}
	return env.Catalog.New(name, values)
}
