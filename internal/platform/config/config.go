package config

import (
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	dbPathCmd   = flag.String("db", "", "Log file path (overrides DB_PATH)")
	tcpPortCmd  = flag.Int("tcp-port", 0, "Text protocol TCP port (overrides TCP_PORT)")
	httpPortCmd = flag.Int("http-port", 0, "HTTP server port (overrides HTTP_PORT)")
	zmqPortCmd  = flag.Int("zmq-port", 0, "ZeroMQ API port (overrides ZMQ_API_PORT)")
)

type Config struct {
	DbPath string
	// CreateDb creates an empty log at DbPath before opening it.
	CreateDb      bool
	IndexSnapshot bool
	Host          string
	TcpPort       int
	HttpPort      int
	ZmqApiPort    int
	LogLevel      string
}

func LoadConfig() Config {
	godotenv.Load(".env")
	cfg := Config{
		DbPath:        getEnv("DB_PATH", "logstore.db"),
		CreateDb:      getEnvBool("CREATE_DB", true),
		IndexSnapshot: getEnvBool("INDEX_SNAPSHOT", false),
		Host:          getEnv("HOST", "127.0.0.1"),
		TcpPort:       getEnvInt("TCP_PORT", 8080),
		HttpPort:      getEnvInt("HTTP_PORT", 3000),
		ZmqApiPort:    getEnvInt("ZMQ_API_PORT", 5555),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	if *dbPathCmd != "" {
		cfg.DbPath = *dbPathCmd
	}
	if *tcpPortCmd != 0 {
		cfg.TcpPort = *tcpPortCmd
	}
	if *httpPortCmd != 0 {
		cfg.HttpPort = *httpPortCmd
	}
	if *zmqPortCmd != 0 {
		cfg.ZmqApiPort = *zmqPortCmd
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}
