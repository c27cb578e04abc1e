package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del PDV (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	ECF     ECFConfig
	TEF     TEFConfig
	PAF     PAFConfig
	Archive ArchiveConfig
	Closing ClosingConfig
	Metrics MetricsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env          string // development, staging, production
	Name         string
	LogLevel     string
	DemoLogin    string // operador sembrado en el almacén en memoria
	DemoPassword string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
// Sin DatabaseURL ni DB_HOST el PDV arranca con el almacén en memoria (modo dev).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// Enabled indica si hay una base de datos configurada.
func (c DBConfig) Enabled() bool {
	return c.DatabaseURL != "" || c.Host != ""
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
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

// JWTConfig configuración de JWT para los operadores de caja.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	SwaggerPath string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ECFConfig configuración de la impresora fiscal (ECF).
type ECFConfig struct {
	Mode        string // dev = simulador; device = driver externo
	Columns     int    // columnas de la bobina (ECF.COL)
	LineBreak   string // separador de línea del driver (ECF.SL)
	FoldAccents bool   // quitar acentos antes de enviar texto al equipo
	Register    int    // número de caja de la impresora
	CardTenders []string
	DeviceAddr  string        // host:puerto del monitor del driver (modo device)
	Serial      string        // número de serie de la impresora
	Timeout     time.Duration // por orden enviada al equipo
}

// TEFConfig configuración del bloqueo del terminal de pagos.
type TEFConfig struct {
	LockMode      string // local o redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockKey       string
	LockTTL       time.Duration
	PollInterval  time.Duration
}

// PAFConfig archivo auxiliar cifrado (PAF.AUXILIAR) donde vive el GT y las banderas regionales.
type PAFConfig struct {
	Path       string
	Passphrase string
}

// ArchiveConfig directorio donde se guardan los documentos RV y los comprobantes TEF.
type ArchiveConfig struct {
	Dir      string
	SlipsDir string
}

// ClosingConfig parámetros del cierre de venta.
type ClosingConfig struct {
	MaxRetries int // 0 = sin límite (el operador decide siempre)
}

// MetricsConfig exposición de métricas Prometheus.
type MetricsConfig struct {
	Enabled bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, ECF_COLUMNS, TEF_LOCK_MODE, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:          getString(v, "APP_ENV", "development"),
			Name:         getString(v, "APP_NAME", "pdv-cierre"),
			LogLevel:     getString(v, "LOG_LEVEL", "info"),
			DemoLogin:    getString(v, "DEMO_OPERATOR_LOGIN", "caixa"),
			DemoPassword: getString(v, "DEMO_OPERATOR_PASSWORD", "caixa123"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", ""),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "pdv"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 480),
			Issuer:     getString(v, "JWT_ISSUER", "pdv-cierre"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			SwaggerPath: getString(v, "HTTP_SWAGGER_FILE", "./docs/swagger.json"),
		},
		ECF: ECFConfig{
			Mode:        strings.ToLower(getString(v, "ECF_MODE", "dev")),
			Columns:     getInt(v, "ECF_COLUMNS", 48),
			LineBreak:   getString(v, "ECF_LINE_BREAK", "\n"),
			FoldAccents: getBool(v, "ECF_FOLD_ACCENTS", true),
			Register:    getInt(v, "ECF_REGISTER", 1),
			CardTenders: getList(v, "ECF_CARD_TENDERS", []string{"03", "04"}),
			DeviceAddr:  getString(v, "ECF_DEVICE_ADDR", ""),
			Serial:      getString(v, "ECF_SERIAL", ""),
			Timeout:     time.Duration(getInt(v, "ECF_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		TEF: TEFConfig{
			LockMode:      strings.ToLower(getString(v, "TEF_LOCK_MODE", "local")),
			RedisAddr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			RedisPassword: getString(v, "REDIS_PASSWORD", ""),
			RedisDB:       getInt(v, "REDIS_DB", 0),
			LockKey:       getString(v, "TEF_LOCK_KEY", "pdv:tef:lock"),
			LockTTL:       time.Duration(getInt(v, "TEF_LOCK_TTL_SECONDS", 300)) * time.Second,
			PollInterval:  time.Duration(getInt(v, "TEF_LOCK_POLL_MS", 200)) * time.Millisecond,
		},
		PAF: PAFConfig{
			Path:       getString(v, "PAF_AUX_PATH", "./data/auxiliar.paf"),
			Passphrase: getString(v, "PAF_AUX_PASSPHRASE", ""),
		},
		Archive: ArchiveConfig{
			Dir:      getString(v, "ARCHIVE_DIR", "./data/documentos"),
			SlipsDir: getString(v, "ARCHIVE_SLIPS_DIR", "./data/comprovantes"),
		},
		Closing: ClosingConfig{
			MaxRetries: getInt(v, "CLOSING_MAX_RETRIES", 0),
		},
		Metrics: MetricsConfig{
			Enabled: getBool(v, "METRICS_ENABLED", true),
		},
	}

	if cfg.ECF.Columns <= 0 {
		return nil, fmt.Errorf("config: ECF_COLUMNS debe ser mayor que cero")
	}
	if cfg.ECF.Mode != "dev" && cfg.ECF.Mode != "device" {
		return nil, fmt.Errorf("config: ECF_MODE debe ser dev o device")
	}
	if cfg.ECF.Mode == "device" && cfg.ECF.DeviceAddr == "" {
		return nil, fmt.Errorf("config: ECF_DEVICE_ADDR es requerido con ECF_MODE=device")
	}
	if cfg.Closing.MaxRetries < 0 {
		return nil, fmt.Errorf("config: CLOSING_MAX_RETRIES no puede ser negativo")
	}
	return cfg, nil
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
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
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

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getList acepta listas separadas por coma ("03,04").
func getList(v *viper.Viper, key string, def []string) []string {
	if !v.IsSet(key) {
		return def
	}
	var out []string
	for _, s := range strings.Split(v.GetString(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
