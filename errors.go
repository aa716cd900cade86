package agriknn

import (
	"errors"
	"fmt"

	"github.com/agrirecsys/agriknn/index"
	"github.com/agrirecsys/agriknn/index/lsh"
	"github.com/agrirecsys/agriknn/model"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidConfig is returned for any other rejected engine setting.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrDuplicateID indicates that two input records share an identifier.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDuplicateID struct {
	ID    model.ID
	cause error
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate record id: %d", e.ID)
}

func (e *ErrDuplicateID) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	var dup *model.ErrDuplicateID
	if errors.As(err, &dup) {
		return &ErrDuplicateID{ID: dup.ID, cause: err}
	}

	for _, target := range []error{
		index.ErrInvalidBands,
		index.ErrInvalidHashFunctions,
		index.ErrInvalidWorkers,
		lsh.ErrInvalidScale,
		lsh.ErrInvalidShards,
	} {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return err
}
