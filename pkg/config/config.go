package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (env, .env y opcionalmente config.env).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	DIAN      DIANConfig
	EInvoice  EInvoiceConfig
	Factus    FactusConfig
	Redis     RedisConfig
	Parking   ParkingConfig
	Inventory InventoryConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío se usa tal cual (ej. DATABASE_URL de Supabase).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	// ForceIPv4 resuelve el host a IPv4 antes de conectar (contenedores sin IPv6).
	ForceIPv4 bool
}

// ConnectionString devuelve DATABASE_URL si está definido, si no el DSN construido.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN arma el connection string escapando usuario y contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins string
}

// Addr devuelve host:port.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DIANConfig configuración para envío directo a la DIAN (Colombia).
type DIANConfig struct {
	TechnicalKey string // clave técnica de la resolución (CUFE)
	SoftwarePIN  string // PIN del software propio (CUDE notas crédito)
	Environment  string // "1" = producción, "2" = habilitación
	AppEnv       string // dev simula el envío
	CertPath     string // .pem o .p12 (vacío = sin firma)
	CertKeyPath  string
	CertPassword string
}

// EInvoiceConfig selecciona el proveedor de facturación electrónica.
type EInvoiceConfig struct {
	Provider       string // none, dian, factus
	TimeoutSeconds int
}

// FactusConfig credenciales de la API de Factus.
type FactusConfig struct {
	BaseURL          string
	ClientID         string
	ClientSecret     string
	Username         string
	Password         string
	NumberingRangeID int
	CreditRangeID    int
}

// RedisConfig conexión opcional para los locks de numeración.
type RedisConfig struct {
	URL string // vacío = lock en memoria
}

// ParkingConfig valores por defecto del módulo de parqueadero.
type ParkingConfig struct {
	RoundingStep int
}

// InventoryConfig umbrales de inventario.
type InventoryConfig struct {
	LowStockLevel int // stock bajo en el tablero
}

// Load lee la configuración. Orden: variables de entorno, .env (godotenv), config.env.
func Load() (*Config, error) {
	// godotenv no pisa variables ya definidas en el entorno
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "invorya-erp"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "invorya"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
			MinConns:    getInt(v, "DB_MIN_CONNS", 2),
			ForceIPv4:   getString(v, "DB_FORCE_IPV4", "true") == "true",
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "invorya-erp"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			CORSOrigins: getString(v, "HTTP_CORS_ORIGINS", "*"),
		},
		DIAN: DIANConfig{
			TechnicalKey: getString(v, "DIAN_TECHNICAL_KEY", ""),
			SoftwarePIN:  getString(v, "DIAN_SOFTWARE_PIN", ""),
			Environment:  getString(v, "DIAN_ENVIRONMENT", "2"),
			AppEnv:       getString(v, "DIAN_APP_ENV", "dev"),
			CertPath:     getString(v, "DIAN_CERT_PATH", ""),
			CertKeyPath:  getString(v, "DIAN_CERT_KEY_PATH", ""),
			CertPassword: getString(v, "DIAN_CERT_PASSWORD", ""),
		},
		EInvoice: EInvoiceConfig{
			Provider:       strings.ToLower(getString(v, "EINVOICE_PROVIDER", "none")),
			TimeoutSeconds: getInt(v, "EINVOICE_TIMEOUT_SECONDS", 60),
		},
		Factus: FactusConfig{
			BaseURL:          getString(v, "FACTUS_BASE_URL", "https://api-sandbox.factus.com.co"),
			ClientID:         getString(v, "FACTUS_CLIENT_ID", ""),
			ClientSecret:     getString(v, "FACTUS_CLIENT_SECRET", ""),
			Username:         getString(v, "FACTUS_USERNAME", ""),
			Password:         getString(v, "FACTUS_PASSWORD", ""),
			NumberingRangeID: getInt(v, "FACTUS_NUMBERING_RANGE_ID", 0),
			CreditRangeID:    getInt(v, "FACTUS_CREDIT_RANGE_ID", 0),
		},
		Redis: RedisConfig{
			URL: getString(v, "REDIS_URL", ""),
		},
		Parking: ParkingConfig{
			RoundingStep: getInt(v, "PARKING_ROUNDING_STEP", 50),
		},
		Inventory: InventoryConfig{
			LowStockLevel: getInt(v, "INVENTORY_LOW_STOCK", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EInvoice.Provider {
	case "none", "dian", "factus":
	default:
		return fmt.Errorf("EINVOICE_PROVIDER inválido: %q (none, dian, factus)", c.EInvoice.Provider)
	}
	if c.EInvoice.Provider == "factus" && (c.Factus.ClientID == "" || c.Factus.Username == "") {
		return fmt.Errorf("FACTUS_CLIENT_ID y FACTUS_USERNAME son obligatorios con EINVOICE_PROVIDER=factus")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
