// Package classify assigns grocery line items to the fixed category set.
package classify

import (
	"context"
	"fmt"
)

// ClassifierError represents an error in a classifier backend
type ClassifierError struct {
	Op  string
	Err error
}

func (e *ClassifierError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}

// Classifier assigns categories to line item descriptions.
//
// CategorizeBatch must return exactly one category per input description, in
// input order. A backend that cannot honor that contract returns an error
// instead of a partial result; the caller treats any error as a classifier
// fault and categorizes every item in the run as Unknown.
type Classifier interface {
	Categorize(ctx context.Context, description, vendor string) (string, error)
	CategorizeBatch(ctx context.Context, descriptions []string) ([]string, error)
}
