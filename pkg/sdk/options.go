package pesto

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	outputDir string

	redisAddrs []string
	redisPass  string
	keyPrefix  string
	ttl        time.Duration

	serverURL string
	accessKey string
	timeout   time.Duration

	template          string
	fileName          string
	frontMatter       bool
	frontMatterFields []string
	aliases           []string
	defaults          []string
	overrides         []string
	keepAnnotations   bool
	overwrite         bool
	continueOnError   bool
	separator         string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		frontMatter: true,
		timeout:     30 * time.Second,
	}
}

// WithOutputDir writes rendered documents below dir, which must exist.
func WithOutputDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.outputDir = dir
	})
}

// WithRedis writes rendered documents to Redis, one string key per file.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPass = password
	})
}

// WithKeyPrefix sets the Redis key prefix. Default: "pesto:output:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithTTL expires Redis outputs after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.ttl = ttl
	})
}

// WithServer sets the Pesto server and access key used by Download.
func WithServer(url, accessKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.serverURL = url
		c.accessKey = accessKey
	})
}

// WithTimeout bounds each Download request. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithTemplate renders documents through a Go text/template instead of the
// built-in markdown layout.
func WithTemplate(text string) Option {
	return optionFunc(func(c *clientConfig) {
		c.template = text
	})
}

// WithFileName sets the output filename pattern, e.g. "{category}/{id}.md".
// Default: "{created_at}.md".
func WithFileName(pattern string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fileName = pattern
	})
}

// WithFrontMatter copies the named context fields into the front matter.
func WithFrontMatter(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.frontMatter = true
		c.frontMatterFields = fields
	})
}

// WithoutFrontMatter leaves the front_matter key out of the context.
func WithoutFrontMatter() Option {
	return optionFunc(func(c *clientConfig) {
		c.frontMatter = false
	})
}

// WithAliases adds new=existing rules.
func WithAliases(rules ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.aliases = append(c.aliases, rules...)
	})
}

// WithDefaults adds key=value rules applied when key is absent.
func WithDefaults(rules ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaults = append(c.defaults, rules...)
	})
}

// WithOverrides adds key=value rules that always apply.
func WithOverrides(rules ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.overrides = append(c.overrides, rules...)
	})
}

// WithSeparator joins nested keys with sep in the template context. Default: "_".
func WithSeparator(sep string) Option {
	return optionFunc(func(c *clientConfig) {
		c.separator = sep
	})
}

// WithAnnotations keeps @private annotations in rendered output.
func WithAnnotations() Option {
	return optionFunc(func(c *clientConfig) {
		c.keepAnnotations = true
	})
}

// WithOverwrite replaces existing outputs instead of failing.
func WithOverwrite() Option {
	return optionFunc(func(c *clientConfig) {
		c.overwrite = true
	})
}

// WithContinueOnError makes Build process every document and report all
// failures together.
func WithContinueOnError() Option {
	return optionFunc(func(c *clientConfig) {
		c.continueOnError = true
	})
}

// WithLogger enables structured logging. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
