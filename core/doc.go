// Package core holds the shared domain types, configuration, error
// taxonomy, and contracts used by the Epic connector packages: the
// canonical attribute vocabulary, vendor endpoint paths, request and
// search containers, and the logging/metrics seams.
package core
