package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/pcer.db"

	// Gates is the facility's named checkpoints, for front-end display.
	// Verification does not validate gate membership against this list.
	Gates []string

	CORSOrigins []string

	// Overstay reporting
	OverstayThresholdHours int // 0 = never report
	SweepIntervalHours     int // how often the sweep runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("PCER_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("PCER_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("PCER_DB_PATH", "./data/pcer.db")

	gates := splitCSV(getenvDefault("PCER_GATES", "KILLINTO GATE,TULUDIMTU GATE"))
	corsOrigins := splitCSV(os.Getenv("PCER_CORS_ORIGINS"))

	threshold := getenvInt("PCER_OVERSTAY_THRESHOLD_HOURS", 0)
	sweepInterval := getenvInt("PCER_SWEEP_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		Gates:       gates,
		CORSOrigins: corsOrigins,

		OverstayThresholdHours: threshold,
		SweepIntervalHours:     sweepInterval,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
