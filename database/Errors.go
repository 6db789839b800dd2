package database

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorKind is the closed set of failures the stores report.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindDuplicateKey
	KindInvalidID
)

var (
	// ErrNotFound is returned when no document matches the id.
	ErrNotFound = errors.New("database: record not found")

	// ErrDuplicateKey is returned on unique index violations.
	ErrDuplicateKey = errors.New("database: duplicate key")

	// ErrInvalidID is returned when an id is not a valid ObjectID.
	ErrInvalidID = errors.New("database: invalid id")
)

// StoreError keeps the driver error behind one of the sentinels.
type StoreError struct {
	Sentinel error
	Cause    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *StoreError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *StoreError) Unwrap() error        { return e.Cause }

// KindOf classifies err. Errors not produced by a store are KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, ErrInvalidID):
		return KindInvalidID
	default:
		return KindUnknown
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &StoreError{Sentinel: ErrNotFound, Cause: err}
	}
	if mongo.IsDuplicateKeyError(err) {
		return &StoreError{Sentinel: ErrDuplicateKey, Cause: err}
	}
	return err
}

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &StoreError{Sentinel: ErrInvalidID, Cause: err}
	}
	return id, nil
}
