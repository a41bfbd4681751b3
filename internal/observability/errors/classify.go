// Package errors maps errors to stable, low-cardinality tags for metrics and notifications.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/pressqueue/internal/errors"
)

// Classify returns a tag for err. Pipeline failures map to fixed names (publish failures include
// their reason); anything else falls back to the innermost concrete type name in snake form.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var (
		pub  *apperrors.PublishError
		gen  *apperrors.GenerationError
		img  *apperrors.ImageGenerationError
		disc *apperrors.DiscoveryError
		led  *apperrors.LedgerWriteError
		conf *apperrors.ConfigurationError
	)
	switch {
	case goerrors.As(err, &pub):
		return "publish_" + string(pub.Reason)
	case goerrors.As(err, &conf):
		return "configuration"
	case goerrors.As(err, &gen):
		if goerrors.Is(err, context.DeadlineExceeded) {
			return "generation_timeout"
		}
		return "generation"
	case goerrors.As(err, &img):
		return "image_generation"
	case goerrors.As(err, &disc):
		return "discovery"
	case goerrors.As(err, &led):
		return "ledger_write"
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return typeName(err)
}

func typeName(err error) string {
	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
