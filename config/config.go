package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DelayRange is a (min, max) pause window. Each pause samples uniformly inside it.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

func (r DelayRange) validate(name string) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%s delay cannot be negative", name)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s delay max (%s) is below min (%s)", name, r.Max, r.Min)
	}
	return nil
}

type Config struct {
	// Keyword source. SpreadsheetID wins over KeywordsFile when both are set.
	CredentialsPath string
	SpreadsheetID   string
	WorksheetName   string
	KeywordsFile    string

	SearchURL       string
	MaxPages        int
	MaxScrolls      int
	Headless        bool
	ProfileDir      string
	UserAgents      []string
	PageLoadTimeout time.Duration

	// RetryAttempts and RetryBackoff govern page navigation and keyword fetching.
	RetryAttempts int
	RetryBackoff  time.Duration

	SearchBoxTimeout      time.Duration
	MoreBusinessesTimeout time.Duration
	ConsentWait           time.Duration

	CaptchaTimeout      time.Duration
	CaptchaPollInterval time.Duration

	AfterPageLoad   DelayRange
	ListRead        DelayRange
	BeforeNextPage  DelayRange
	BetweenKeywords DelayRange
	ScrollPause     DelayRange
	Keystroke       DelayRange

	ProgressPath string
	OutputPath   string
	LogPath      string

	EmailEnabled  bool
	SMTPHost      string
	SMTPPort      int
	EmailSender   string
	EmailPassword string
	Recipients    []string

	MetricsAddr string
}

func DefaultConfig() *Config {
	return &Config{
		WorksheetName: "GMB lists",
		SearchURL:     "https://www.google.com/",
		MaxPages:      10,
		MaxScrolls:    5,
		Headless:      false,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		},
		PageLoadTimeout: 60 * time.Second,
		RetryAttempts:   3,
		RetryBackoff:    2 * time.Second,

		SearchBoxTimeout:      10 * time.Second,
		MoreBusinessesTimeout: 20 * time.Second,
		ConsentWait:           2 * time.Second,

		CaptchaTimeout:      10 * time.Minute,
		CaptchaPollInterval: 10 * time.Second,

		AfterPageLoad:   DelayRange{Min: 2500 * time.Millisecond, Max: 4 * time.Second},
		ListRead:        DelayRange{Min: 3 * time.Second, Max: 5 * time.Second},
		BeforeNextPage:  DelayRange{Min: 2 * time.Second, Max: 3500 * time.Millisecond},
		BetweenKeywords: DelayRange{Min: 10 * time.Second, Max: 25 * time.Second},
		ScrollPause:     DelayRange{Min: 800 * time.Millisecond, Max: 1500 * time.Millisecond},
		Keystroke:       DelayRange{Min: 50 * time.Millisecond, Max: 150 * time.Millisecond},

		ProgressPath: "gmb_completed_keywords.txt",
		OutputPath:   "GMB_Scraped_Data.xlsx",
		LogPath:      "gmb_scraper.log",

		SMTPHost: "smtp.gmail.com",
		SMTPPort: 587,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" && c.KeywordsFile == "" {
		return fmt.Errorf("a spreadsheet ID or a keywords file is required")
	}
	if c.SpreadsheetID != "" && c.WorksheetName == "" {
		return fmt.Errorf("worksheet name cannot be empty")
	}

	parsedURL, err := url.Parse(c.SearchURL)
	if err != nil {
		return fmt.Errorf("invalid search URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("search URL must include a host")
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.MaxScrolls <= 0 {
		return fmt.Errorf("max scrolls must be positive")
	}
	if len(c.UserAgents) == 0 {
		return fmt.Errorf("user agent pool cannot be empty")
	}
	if c.PageLoadTimeout <= 0 {
		return fmt.Errorf("page load timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.SearchBoxTimeout <= 0 || c.MoreBusinessesTimeout <= 0 {
		return fmt.Errorf("element wait timeout must be positive")
	}
	if c.CaptchaTimeout <= 0 {
		return fmt.Errorf("captcha timeout must be positive")
	}
	if c.CaptchaPollInterval <= 0 {
		return fmt.Errorf("captcha poll interval must be positive")
	}

	ranges := []struct {
		name string
		r    DelayRange
	}{
		{"after page load", c.AfterPageLoad},
		{"list read", c.ListRead},
		{"before next page", c.BeforeNextPage},
		{"between keywords", c.BetweenKeywords},
		{"scroll pause", c.ScrollPause},
		{"keystroke", c.Keystroke},
	}
	for _, d := range ranges {
		if err := d.r.validate(d.name); err != nil {
			return err
		}
	}

	if c.ProgressPath == "" {
		return fmt.Errorf("progress path cannot be empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if ext := strings.ToLower(filepath.Ext(c.OutputPath)); ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("output path must end in .xlsx or .csv")
	}

	if c.EmailEnabled {
		if c.SMTPHost == "" || c.SMTPPort <= 0 {
			return fmt.Errorf("email enabled but SMTP server is incomplete")
		}
		if c.EmailSender == "" {
			return fmt.Errorf("email enabled but sender is empty")
		}
		if len(c.Recipients) == 0 {
			return fmt.Errorf("email enabled but recipient list is empty")
		}
	}

	return nil
}

// Load returns the defaults overlaid with GMB_* environment variables.
// envFile is loaded first when it exists; real environment values take precedence.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()

	if v, ok := EnvString("GMB_CREDENTIALS_PATH"); ok {
		cfg.CredentialsPath = v
	}
	if v, ok := EnvString("GMB_SPREADSHEET_ID"); ok {
		cfg.SpreadsheetID = v
	}
	if v, ok := EnvString("GMB_WORKSHEET"); ok {
		cfg.WorksheetName = v
	}
	if v, ok := EnvString("GMB_KEYWORDS_FILE"); ok {
		cfg.KeywordsFile = v
	}
	if v, ok := EnvString("GMB_SEARCH_URL"); ok {
		cfg.SearchURL = v
	}
	if v, ok := EnvString("GMB_PROFILE_DIR"); ok {
		cfg.ProfileDir = v
	}
	if v, ok := EnvList("GMB_USER_AGENTS"); ok {
		cfg.UserAgents = v
	}
	if v, ok := EnvString("GMB_PROGRESS_FILE"); ok {
		cfg.ProgressPath = v
	}
	if v, ok := EnvString("GMB_OUTPUT"); ok {
		cfg.OutputPath = v
	}
	if v, ok := EnvString("GMB_LOG_FILE"); ok {
		cfg.LogPath = v
	}
	if v, ok := EnvString("GMB_SMTP_HOST"); ok {
		cfg.SMTPHost = v
	}
	if v, ok := EnvString("GMB_EMAIL_SENDER"); ok {
		cfg.EmailSender = v
	}
	if v, ok := EnvString("GMB_EMAIL_PASSWORD"); ok {
		cfg.EmailPassword = v
	}
	if v, ok := EnvList("GMB_EMAIL_RECIPIENTS"); ok {
		cfg.Recipients = v
	}
	if v, ok := EnvString("GMB_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"GMB_MAX_PAGES", &cfg.MaxPages},
		{"GMB_SMTP_PORT", &cfg.SMTPPort},
	}
	for _, i := range ints {
		v, ok, err := EnvInt(i.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*i.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"GMB_HEADLESS", &cfg.Headless},
		{"GMB_EMAIL_ENABLED", &cfg.EmailEnabled},
	}
	for _, b := range bools {
		v, ok, err := EnvBool(b.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*b.dst = v
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"GMB_CAPTCHA_TIMEOUT", &cfg.CaptchaTimeout},
		{"GMB_CAPTCHA_POLL_INTERVAL", &cfg.CaptchaPollInterval},
		{"GMB_PAGE_LOAD_TIMEOUT", &cfg.PageLoadTimeout},
	}
	for _, d := range durations {
		v, ok, err := EnvDuration(d.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*d.dst = v
		}
	}

	return cfg, nil
}

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// EnvList splits a comma-separated variable, dropping empty items.
func EnvList(key string) ([]string, bool) {
	raw, ok := EnvString(key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, len(out) > 0
}

func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, true, nil
}

func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, true, nil
}

// EnvDuration accepts Go duration strings ("90s") or bare seconds ("600").
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, true, nil
}
