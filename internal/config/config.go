package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/cyphera/cyphera-mpc-billing/internal/helpers"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
)

// Config is the runtime configuration of the billing API.
type Config struct {
	Stage    string `env:"STAGE" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Port     int    `env:"PORT" envDefault:"8080"`

	Database struct {
		// URL selects Postgres on the local stage. Empty means in-memory stores.
		URL          string `env:"DATABASE_URL"`
		URLSecretARN string `env:"DATABASE_URL_ARN"`
		// Deployed stages build the DSN from these and an RDS secret.
		Host      string `env:"DB_HOST"`
		Name      string `env:"DB_NAME"`
		SecretARN string `env:"RDS_SECRET_ARN"`
		SSLMode   string `env:"DB_SSLMODE" envDefault:"require"`
	}

	Billing struct {
		ContractAccountID  string        `env:"CONTRACT_ACCOUNT_ID,required"`
		OperatorAccountID  string        `env:"OPERATOR_ACCOUNT_ID,required"`
		OperatorAPIKey     string        `env:"OPERATOR_API_KEY"`
		OperatorAPIKeyARN  string        `env:"OPERATOR_API_KEY_ARN"`
		Period             time.Duration `env:"SUBSCRIPTION_PERIOD" envDefault:"720h"`
		Price              near.Balance  `env:"SUBSCRIPTION_PRICE" envDefault:"10"`
		TokenContractID    string        `env:"TOKEN_CONTRACT_ID"`
		TransferReceiverID string        `env:"TRANSFER_RECEIVER_ID"`
		ChargeWaitTimeout  time.Duration `env:"CHARGE_WAIT_TIMEOUT" envDefault:"10s"`
	}

	Signer struct {
		URL                string        `env:"MPC_SIGNER_URL,required"`
		ContractID         string        `env:"MPC_CONTRACT_ID" envDefault:"v1.signer-prod.testnet"`
		SignTimeout        time.Duration `env:"MPC_SIGN_TIMEOUT" envDefault:"30s"`
		CallbackURL        string        `env:"MPC_CALLBACK_URL"`
		CallbackToken      string        `env:"SIGNER_CALLBACK_TOKEN"`
		ResultQueueURL     string        `env:"SIGNER_RESULT_QUEUE_URL"`
		ResultQueueEnabled bool          `env:"SIGNER_RESULT_QUEUE_ENABLED" envDefault:"true"`
	}

	API struct {
		RateLimitRPS   int      `env:"RATE_LIMIT_RPS" envDefault:"10"`
		RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"20"`
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	}
}

var balanceType = reflect.TypeOf(near.Balance{})

// parsers reads SUBSCRIPTION_PRICE as a decimal NEAR amount.
var parsers = map[reflect.Type]env.ParserFunc{
	balanceType: func(v string) (interface{}, error) {
		return near.ParseNearAmount(v)
	},
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return parse(nil)
}

func parse(environment map[string]string) (Config, error) {
	var c Config
	var opts []env.Options
	if environment != nil {
		opts = append(opts, env.Options{Environment: environment})
	}
	if err := env.ParseWithFuncs(&c, parsers, opts...); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if !helpers.IsValidStage(c.Stage) {
		return fmt.Errorf("invalid STAGE %q: must be one of %s, %s, %s",
			c.Stage, helpers.StageProd, helpers.StageDev, helpers.StageLocal)
	}
	if c.Billing.Period <= 0 {
		return errors.New("SUBSCRIPTION_PERIOD must be positive")
	}
	if c.Billing.Price.IsZero() {
		return errors.New("SUBSCRIPTION_PRICE must be positive")
	}
	if c.Billing.ChargeWaitTimeout < 0 || c.Signer.SignTimeout <= 0 {
		return errors.New("CHARGE_WAIT_TIMEOUT must not be negative and MPC_SIGN_TIMEOUT must be positive")
	}
	if c.API.RateLimitRPS <= 0 || c.API.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if (c.Billing.TokenContractID == "") != (c.Billing.TransferReceiverID == "") {
		return errors.New("TOKEN_CONTRACT_ID and TRANSFER_RECEIVER_ID must be set together")
	}

	accounts := map[string]string{
		"CONTRACT_ACCOUNT_ID":  c.Billing.ContractAccountID,
		"OPERATOR_ACCOUNT_ID":  c.Billing.OperatorAccountID,
		"MPC_CONTRACT_ID":      c.Signer.ContractID,
		"TOKEN_CONTRACT_ID":    c.Billing.TokenContractID,
		"TRANSFER_RECEIVER_ID": c.Billing.TransferReceiverID,
	}
	for key, id := range accounts {
		if id == "" {
			continue
		}
		if err := near.ValidateAccountID(id); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// PeriodLength is the subscription period in nanoseconds.
func (c Config) PeriodLength() uint64 {
	return uint64(c.Billing.Period.Nanoseconds())
}

// Deployed reports whether the stage runs in AWS.
func (c Config) Deployed() bool {
	return c.Stage == helpers.StageProd || c.Stage == helpers.StageDev
}
