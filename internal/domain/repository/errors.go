package repository

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrQuoteUnavailable indicates the quote provider could not serve a quote
	// after the whole credential pool was exhausted.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrInsufficientData indicates the historical log is too short to train on.
	ErrInsufficientData = errors.New("insufficient historical data")

	// ErrModelTraining indicates regression training failed.
	ErrModelTraining = errors.New("model training failed")

	// ErrPrediction indicates one or more horizon predictions failed.
	ErrPrediction = errors.New("prediction generation failed")

	// ErrPersistence indicates a fatal write to the current-prediction store.
	ErrPersistence = errors.New("prediction persistence failed")
)
