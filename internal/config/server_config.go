package config

import (
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "TXENV"

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	PrettyPrintConsole bool
}

type Wallet struct {
	KeystorePath string
	// Derivation paths of the three accounts the CLI signs with.
	RootPath      string
	AccessKeyPath string
	FeePayerPath  string
	// AccessKeyScheme is one of "secp256k1", "p256" or "webAuthn".
	AccessKeyScheme string
	// WebAuthn relying party used by the software authenticator.
	WebAuthnRPID   string
	WebAuthnOrigin string
	EnableSigning  bool
	ScryptN        int
	ScryptP        int
}

type Chain struct {
	ChainID uint64
	// FeeToken is an address or a numeric token id. It is the default fee
	// token for new envelopes and, when set, the only token the relay sponsors.
	FeeToken string
}

type Server struct {
	Logger LoggerServer
	Wallet Wallet
	Chain  Chain
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	// An .env file is optional; values already present in the environment win.
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_request_level", "debug")
	v.SetDefault("log_pretty_print_console", false)

	v.SetDefault("keystore_path", filepath.Join(".", "keystore", "txenv.json"))
	v.SetDefault("root_path", "m/44'/60'/0'/0/0")
	v.SetDefault("access_key_path", "m/44'/60'/0'/1/0")
	v.SetDefault("fee_payer_path", "m/44'/60'/0'/2/0")
	v.SetDefault("access_key_scheme", "secp256k1")
	v.SetDefault("webauthn_rp_id", "localhost")
	v.SetDefault("webauthn_origin", "http://localhost")
	v.SetDefault("enable_signing", true)
	v.SetDefault("scrypt_n", keystore.StandardScryptN)
	v.SetDefault("scrypt_p", keystore.StandardScryptP)

	v.SetDefault("chain_id", 1)
	v.SetDefault("fee_token", "")

	return Server{
		Logger: LoggerServer{
			Level:              parseLevel(v, "log_level", zerolog.InfoLevel),
			RequestLevel:       parseLevel(v, "log_request_level", zerolog.DebugLevel),
			PrettyPrintConsole: v.GetBool("log_pretty_print_console"),
		},
		Wallet: Wallet{
			KeystorePath:    v.GetString("keystore_path"),
			RootPath:        v.GetString("root_path"),
			AccessKeyPath:   v.GetString("access_key_path"),
			FeePayerPath:    v.GetString("fee_payer_path"),
			AccessKeyScheme: v.GetString("access_key_scheme"),
			WebAuthnRPID:    v.GetString("webauthn_rp_id"),
			WebAuthnOrigin:  v.GetString("webauthn_origin"),
			EnableSigning:   v.GetBool("enable_signing"),
			ScryptN:         positiveInt(v, "scrypt_n", keystore.StandardScryptN),
			ScryptP:         positiveInt(v, "scrypt_p", keystore.StandardScryptP),
		},
		Chain: Chain{
			ChainID:  positiveUint64(v, "chain_id"),
			FeeToken: v.GetString("fee_token"),
		},
	}
}

func parseLevel(v *viper.Viper, key string, fallback zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(v.GetString(key))
	if err != nil {
		log.Warn().Err(err).Str("key", envKey(key)).Msg("Invalid log level, falling back to default")
		return fallback
	}

	return level
}

func positiveInt(v *viper.Viper, key string, fallback int) int {
	n := v.GetInt(key)
	if n <= 0 {
		log.Warn().Str("key", envKey(key)).Str("value", v.GetString(key)).Msg("Invalid value, falling back to default")
		return fallback
	}

	return n
}

func positiveUint64(v *viper.Viper, key string) uint64 {
	n := v.GetUint64(key)
	if n == 0 {
		log.Warn().Str("key", envKey(key)).Str("value", v.GetString(key)).Msg("Invalid value, falling back to 1")
		return 1
	}

	return n
}

func envKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}
