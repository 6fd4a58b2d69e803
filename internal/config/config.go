package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads the configuration and sets default values for development/production
func LoadConfig() error {
	// A local .env overrides nothing in the config file, it only seeds the
	// process environment before viper reads it.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("error loading .env file: %w", err)
		}
	}

	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".") // Path to look for the config file in
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create a default one
			return createDefaultConfig()
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	// Ensure we have sensible defaults in case they are not in the config file
	setDefaults()

	return nil
}

// setDefaults sets default configuration values based on the environment
func setDefaults() {
	// Check the current environment (default is development)
	env := viper.GetString("ENV")
	if env == "" {
		env = "development"
		viper.Set("ENV", env)
	}

	// Set defaults for development and production environments
	if env == "development" {
		viper.SetDefault("allowed_origin", "http://localhost:3000")
		viper.SetDefault("wallet_db_path", "./dev_wallet_cache.db")
		viper.SetDefault("log_level", "debug")
	} else if env == "production" {
		viper.SetDefault("allowed_origin", "https://my-production-site.com")
		viper.SetDefault("wallet_db_path", "/var/lib/chia-wallet-console/wallet_cache.db")
		viper.SetDefault("log_level", "info")
	}

	// Common defaults for both environments
	viper.SetDefault("node_host", "127.0.0.1")
	viper.SetDefault("node_port", 9256)
	viper.SetDefault("reconnect_delay_ms", 100)
	viper.SetDefault("reconnect_max_attempts", 0) // 0 retries forever
	viper.SetDefault("log_file_path", "./wallet_console.log")
	viper.SetDefault("api_port", 9003)
	viper.SetDefault("use_https", false)
	viper.SetDefault("cert_file", "server.crt")
	viper.SetDefault("key_file", "server.key")
	viper.SetDefault("wallet_api_key", "")
	viper.SetDefault("jwt_keys_dir", "./jwtkeys")
	viper.SetDefault("qr_output_path", "./receive_address.png")
	viper.SetDefault("copy_address_to_clipboard", true)
	viper.SetDefault("server_mode", false)
}

// NodeEndpoint returns the websocket URL of the wallet service. The
// address is a startup constant, it is never changed at runtime.
func NodeEndpoint() string {
	return fmt.Sprintf("ws://%s:%d", viper.GetString("node_host"), viper.GetInt("node_port"))
}

// createDefaultConfig creates a new configuration file if it doesn't exist
func createDefaultConfig() error {
	setDefaults()

	// Write the default configuration to a file
	err := viper.SafeWriteConfig()
	if err != nil {
		if os.IsExist(err) {
			// If the config already exists, attempt to overwrite it
			err = viper.WriteConfig()
			if err != nil {
				return fmt.Errorf("error writing config file: %w", err)
			}
		} else {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	fmt.Println("Created default configuration file")
	return nil
}
