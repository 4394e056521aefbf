// Package config loads capturequeue's runtime configuration from a file,
// environment variables, and command-line flags via Viper, mirroring the
// --config flag plus env var override pattern used across capturequeue's
// sibling commands.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CAPTURE"

// Keys recognized by Load, listed so callers and tests reference one name.
const (
	KeyDatabaseURL                = "database-url"
	KeyDispatcherSessionsEnabled  = "dispatcher.sessions.enabled"
	KeyDispatcherSessionsPollSecs = "dispatcher.sessions.poll-seconds"
	KeyDispatcherNotifEnabled     = "dispatcher.notifications.enabled"
	KeyDispatcherNotifPollSecs    = "dispatcher.notifications.poll-seconds"
	KeyDispatcherNotifBatchSize   = "dispatcher.notifications.batch-size"
	KeyIngressListenAddr          = "ingress.listen-addr"
	KeyBlobstoreBucket            = "blobstore.bucket"
	KeyBlobstoreEndpoint          = "blobstore.endpoint"
	KeyBlobstoreLocalDir          = "blobstore.local-dir"
	KeyChatClientBaseURL          = "chatclient.base-url"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDispatcherSessionsEnabled, true)
	v.SetDefault(KeyDispatcherSessionsPollSecs, 5)
	v.SetDefault(KeyDispatcherNotifEnabled, true)
	v.SetDefault(KeyDispatcherNotifPollSecs, 3)
	v.SetDefault(KeyDispatcherNotifBatchSize, 20)
	v.SetDefault(KeyIngressListenAddr, ":8080")
}

// Config is the resolved, clamped configuration surface.
type Config struct {
	DatabaseURL string

	DispatcherSessionsEnabled  bool
	DispatcherSessionsPollSecs int

	DispatcherNotifEnabled   bool
	DispatcherNotifPollSecs  int
	DispatcherNotifBatchSize int

	IngressListenAddr string

	BlobstoreBucket   string
	BlobstoreEndpoint string
	BlobstoreLocalDir string

	ChatClientBaseURL string
}

// Load builds a Viper instance bound to flags (if provided), file, and
// CAPTURE_-prefixed environment variables, then resolves a Config with
// spec-mandated floors and clamps applied.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return resolve(v), nil
}

func resolve(v *viper.Viper) *Config {
	cfg := &Config{
		DatabaseURL: v.GetString(KeyDatabaseURL),

		DispatcherSessionsEnabled:  v.GetBool(KeyDispatcherSessionsEnabled),
		DispatcherSessionsPollSecs: floor(v.GetInt(KeyDispatcherSessionsPollSecs), 1),

		DispatcherNotifEnabled:   v.GetBool(KeyDispatcherNotifEnabled),
		DispatcherNotifPollSecs:  floor(v.GetInt(KeyDispatcherNotifPollSecs), 1),
		DispatcherNotifBatchSize: clamp(v.GetInt(KeyDispatcherNotifBatchSize), 1, 100),

		IngressListenAddr: v.GetString(KeyIngressListenAddr),

		BlobstoreBucket:   v.GetString(KeyBlobstoreBucket),
		BlobstoreEndpoint: v.GetString(KeyBlobstoreEndpoint),
		BlobstoreLocalDir: v.GetString(KeyBlobstoreLocalDir),

		ChatClientBaseURL: v.GetString(KeyChatClientBaseURL),
	}
	return cfg
}

func floor(v, min int) int {
	if v < min {
		return min
	}
	return v
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// CoreDisabled reports whether database-url is unset, in which case C2-C6
// never construct a pool and the dispatcher commands refuse to start.
func (c *Config) CoreDisabled() bool {
	return c.DatabaseURL == ""
}
