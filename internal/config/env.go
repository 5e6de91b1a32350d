package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jtomasevic/bloc/internal/logging"
	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
)

// DefaultStorePath is the model database used when BLOC_MODEL_DB is unset.
const DefaultStorePath = "bloc-models.db"

// LoadEnv loads environment variables from .env files
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env", ".env.dev"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
	} else {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetLogLevel gets the log level from environment
func GetLogLevel() logrus.Level {
	return logging.LevelFromEnv()
}

// StorePath is the SQLite model database path.
func StorePath() string {
	return GetEnv("BLOC_MODEL_DB", DefaultStorePath)
}

// EncoderOptionsFromEnv turns BLOC_* variables into encoder options. Unset
// variables keep the encoder defaults; malformed ones are reported together.
func EncoderOptionsFromEnv() ([]behavior_encoder.Option, error) {
	var (
		opts []behavior_encoder.Option
		errs []error
	)

	marks := []struct {
		key  string
		with func(time.Duration) behavior_encoder.Option
	}{
		{"BLOC_BLANK_MARK", behavior_encoder.WithBlankMark},
		{"BLOC_MINUTE_MARK", behavior_encoder.WithMinuteMark},
	}
	for _, m := range marks {
		if value := os.Getenv(m.key); value != "" {
			d, err := ParseSeconds(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", m.key, err))
				continue
			}
			opts = append(opts, m.with(d))
		}
	}

	if value := os.Getenv("BLOC_DIMENSIONS"); value != "" {
		dims, err := ParseDimensions(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("BLOC_DIMENSIONS: %w", err))
		} else {
			opts = append(opts, behavior_encoder.WithDimensions(dims...))
		}
	}

	if value := os.Getenv("BLOC_SEGMENTATION"); value != "" {
		s, err := behavior_encoder.ParseSegmentation(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("BLOC_SEGMENTATION: %w", err))
		} else {
			opts = append(opts, behavior_encoder.WithSegmentation(s))
		}
	}

	if value := os.Getenv("BLOC_DAYS_PER_SEGMENT"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("BLOC_DAYS_PER_SEGMENT: %q is not a positive integer", value))
		} else {
			opts = append(opts, behavior_encoder.WithDaysPerSegment(n))
		}
	}

	if value := os.Getenv("BLOC_FOLD_THRESHOLD"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("BLOC_FOLD_THRESHOLD: %w", err))
		} else {
			opts = append(opts, behavior_encoder.WithFoldThreshold(n))
		}
	}

	if value := os.Getenv("BLOC_TIME_REFERENCE"); value != "" {
		r, err := behavior_encoder.ParseTimeReference(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("BLOC_TIME_REFERENCE: %w", err))
		} else {
			opts = append(opts, behavior_encoder.WithTimeReference(r))
		}
	}

	if value := os.Getenv("BLOC_TIMEZONE"); value != "" {
		loc, err := time.LoadLocation(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("BLOC_TIMEZONE: %w", err))
		} else {
			opts = append(opts, behavior_encoder.WithLocation(loc))
		}
	}

	if _, ok := os.LookupEnv("BLOC_SORT_ACTION_WORDS"); ok {
		opts = append(opts, behavior_encoder.WithSortActionWords(GetEnvBool("BLOC_SORT_ACTION_WORDS", false)))
	}
	if _, ok := os.LookupEnv("BLOC_CHANGE_ON_ALL_EVENTS"); ok {
		opts = append(opts, behavior_encoder.WithChangeOnAllEvents(GetEnvBool("BLOC_CHANGE_ON_ALL_EVENTS", false)))
	}

	return opts, errors.Join(errs...)
}

// ParseSeconds accepts a Go duration ("90s", "5m") or a bare number of seconds.
func ParseSeconds(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%q is neither seconds nor a duration", value)
	}
	return d, nil
}

// ParseDimensions splits a comma separated list. "all" selects every dimension.
func ParseDimensions(value string) ([]behavior_encoder.Dimension, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return append([]behavior_encoder.Dimension(nil), behavior_encoder.AllDimensions...), nil
	}
	var (
		out  []behavior_encoder.Dimension
		errs []error
	)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := behavior_encoder.ParseDimension(part)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
