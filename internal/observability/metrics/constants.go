package metrics

import "time"

// Operation labels of the archive round trip.
const (
	OpCollectionExport = "collection_export"
	OpCollectionImport = "collection_import"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Histogram bucket configuration.
const (
	BucketStart1ms = 0.001
	BucketStart64B = 64.0
	BucketFactor2  = 2
	BucketCount10  = 10
	BucketCount15  = 15
)

// ShutdownTimeout bounds graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
