package tagstore

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// Default table names.
const (
	DefaultTagTable        = "tag"
	DefaultTaggedItemTable = "tagged_item"
	DefaultItemTable       = "mail_item"
)

// options holds store configuration.
type options struct {
	logger          *slog.Logger
	singleMailbox   bool
	tagTable        string
	taggedItemTable string
	itemTable       string
	metricsEnabled  bool
	meterProvider   metric.MeterProvider
}

func newOptions(opts ...Option) *options {
	o := &options{
		logger:          slog.Default(),
		tagTable:        DefaultTagTable,
		taggedItemTable: DefaultTaggedItemTable,
		itemTable:       DefaultItemTable,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSingleMailbox omits the mailbox_id predicate from every statement, for
// deployments with one mailbox per database. Rows are still written with the
// store's mailbox id.
func WithSingleMailbox() Option {
	return func(o *options) {
		o.singleMailbox = true
	}
}

// WithTableNames overrides the default table names. Empty names keep the
// defaults.
func WithTableNames(tag, taggedItem, item string) Option {
	return func(o *options) {
		if tag != "" {
			o.tagTable = tag
		}
		if taggedItem != "" {
			o.taggedItemTable = taggedItem
		}
		if item != "" {
			o.itemTable = item
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for store operations.
func WithMetrics() Option {
	return func(o *options) {
		o.metricsEnabled = true
	}
}

// WithMeterProvider sets the meter provider used when metrics are enabled.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}
