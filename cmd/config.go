package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"auxmark.dev/pkg/auxmark/internal/detectors/imagelocal"
	"auxmark.dev/pkg/auxmark/internal/detectors/xembed"
	"auxmark.dev/pkg/auxmark/internal/domain"
	m "auxmark.dev/pkg/auxmark/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName        = ".auxmark"
	configType            = "toml"
	configFileName        = configBaseName + "." + configType
	configFolderPath      = "."
	themeConfigFolderPath = "themes/chaos"

	configFlagName    = "config"
	dryRunFlagName    = "dry-run"
	verboseFlagName   = "verbose"
	moduleFlagName    = "module"
	parallelFlagName  = "parallel"
	rateLimitFlagName = "rate-limit-delay"
	reportFlagName    = "report"

	verboseConfigKey   = "general.verbose"
	dryRunConfigKey    = "general.dry_run"
	extensionConfigKey = "general.extension"
	maxWorkersKey      = "worker.max_workers"
	rateLimitDelayKey  = "worker.rate_limit_delay"
	moduleSelectKey    = "modules.select"
	reportPathKey      = "report.path"

	tweetModuleKey = "modules." + xembed.Name
	imageModuleKey = "modules." + imagelocal.Name

	defaultRateLimitDelay = 1.0

	envPrefix = "AUXMARK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	logDirName           = "auxmark"
	logBaseName          = "auxmark.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType(configType)
	viper.AddConfigPath(configFolderPath)
	viper.AddConfigPath(themeConfigFolderPath)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		slog.Warn("Failed to read config file", "error", err)
	}
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(verboseConfigKey, false)
	viper.SetDefault(dryRunConfigKey, false)
	viper.SetDefault(extensionConfigKey, domain.DefaultExtension)
	viper.SetDefault(maxWorkersKey, domain.DefaultMaxWorkers)
	viper.SetDefault(rateLimitDelayKey, defaultRateLimitDelay)
	viper.SetDefault(moduleSelectKey, []string{})
	viper.SetDefault(reportPathKey, "")

	tweet := xembed.DefaultConfig()
	viper.SetDefault(tweetModuleKey+".enabled", tweet.Enabled)
	viper.SetDefault(tweetModuleKey+".cache_max_age_days", tweet.CacheMaxAgeDays)
	viper.SetDefault(tweetModuleKey+".defang", tweet.Defang)
	viper.SetDefault(tweetModuleKey+".lang", tweet.Lang)
	viper.SetDefault(tweetModuleKey+".data_dir", tweet.DataDir)
	viper.SetDefault(tweetModuleKey+".max_retries", tweet.MaxRetries)
	viper.SetDefault(tweetModuleKey+".retry_delay", tweet.RetryDelay)
	viper.SetDefault(tweetModuleKey+".retry_backoff", tweet.RetryBackoff)
	viper.SetDefault(tweetModuleKey+".timeout", tweet.Timeout)

	image := imagelocal.DefaultConfig()
	viper.SetDefault(imageModuleKey+".enabled", image.Enabled)
	viper.SetDefault(imageModuleKey+".max_retries", image.MaxRetries)
	viper.SetDefault(imageModuleKey+".retry_delay", image.RetryDelay)
	viper.SetDefault(imageModuleKey+".retry_backoff", image.RetryBackoff)
	viper.SetDefault(imageModuleKey+".timeout", image.Timeout)
	viper.SetDefault(imageModuleKey+".allowlist", []string{})
	viper.SetDefault(imageModuleKey+".allow_subdomains", image.AllowSubdomains)
	viper.SetDefault(imageModuleKey+".blocklist", []string{})
	viper.SetDefault(imageModuleKey+".block_subdomains", image.BlockSubdomains)

	viper.SetDefault(logFilenameKey, defaultLogPath())
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// loadConfigFile reads an explicitly requested config file.
func loadConfigFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	viper.SetConfigFile(path)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return nil
}

// defaultLogPath keeps the log out of the work tree, so a dry run leaves the
// repository untouched.
func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, logDirName, logBaseName)
}

// readRepositoryConfig looks for a config file relative to the repository
// root when none was found from the working directory. It reports whether
// a file was read.
func readRepositoryConfig(v *viper.Viper, root m.Path) (bool, error) {
	if v.ConfigFileUsed() != "" {
		return false, nil
	}

	for _, folder := range []string{configFolderPath, themeConfigFolderPath} {
		path := filepath.Join(string(root), folder, configFileName)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return false, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		return true, nil
	}

	return false, nil
}

// tweetConfig starts from the defaults so partially specified tables keep
// the remaining values.
func tweetConfig() (xembed.Config, error) {
	cfg := xembed.DefaultConfig()
	if err := viper.UnmarshalKey(tweetModuleKey, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s config: %w", tweetModuleKey, err)
	}

	return cfg, nil
}

func imageConfig() (imagelocal.Config, error) {
	cfg := imagelocal.DefaultConfig()
	if err := viper.UnmarshalKey(imageModuleKey, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s config: %w", imageModuleKey, err)
	}

	return cfg, nil
}

func rateLimitDelay() time.Duration {
	return secondsToDuration(viper.GetFloat64(rateLimitDelayKey))
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds < 0 {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogPath()
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
