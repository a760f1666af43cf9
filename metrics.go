package treestore

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	staleReads    metric.Int64Counter
	backendErrors metric.Int64Counter
)

func init() {
	meter := otel.Meter("code.byted.org/khicago/treestore")

	var err error

	cacheHits, err = meter.Int64Counter(
		"treestore.cache.hits",
		metric.WithDescription("Reads answered from a fresh cache entry"),
	)
	if err != nil {
		log.Fatalf("failed to create treestore.cache.hits counter: %v", err)
	}

	cacheMisses, err = meter.Int64Counter(
		"treestore.cache.misses",
		metric.WithDescription("Reads that went to the backend"),
	)
	if err != nil {
		log.Fatalf("failed to create treestore.cache.misses counter: %v", err)
	}

	staleReads, err = meter.Int64Counter(
		"treestore.stale_reads",
		metric.WithDescription("Reads that fell back to the cached value after a backend failure"),
	)
	if err != nil {
		log.Fatalf("failed to create treestore.stale_reads counter: %v", err)
	}

	backendErrors, err = meter.Int64Counter(
		"treestore.backend.errors",
		metric.WithDescription("Failed backend calls"),
	)
	if err != nil {
		log.Fatalf("failed to create treestore.backend.errors counter: %v", err)
	}
}

func nsAttr(namespace string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("namespace", namespace))
}

func countBackendError(ctx context.Context, namespace, op string) {
	backendErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("op", op),
	))
}
