package uploader

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the uploader function's runtime configuration. Everything
// comes from the environment; the deploy tool injects these via
// --set-env-vars and DB_PASSWORD via --set-secrets.
type Config struct {
	Port                   string `env:"PORT, default=8080"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME, default=wandern-project-startup:us-central1:wandern-postgres-instance-v3"`
	DBUser                 string `env:"DB_USER, default=wandern_user"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBName                 string `env:"DB_NAME, default=wandern"`
	ModerationAgentURL     string `env:"MODERATION_AGENT_URL, default=https://us-central1-wandern-project-startup.cloudfunctions.net/wandern-moderation-agent"`
	IrysNodeURL            string `env:"IRYS_NODE, default=https://node1.irys.xyz"`
	ArweaveWalletKey       string `env:"ARWEAVE_WALLET_KEY"`
}

func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DSN builds the pgx connection string for the Cloud SQL unix socket the
// Cloud Functions runtime mounts under /cloudsql.
func (c Config) DSN() string {
	return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s",
		c.InstanceConnectionName, c.DBUser, c.DBPassword, c.DBName)
}

func (c Config) ListenAddr() string {
	return ":" + c.Port
}
