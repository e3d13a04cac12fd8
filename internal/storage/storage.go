package storage

import "curvePool/internal/model"

// Storage defines a sink for replay results.
type Storage interface {
	PutResults(results []model.OperationResult) error
}
