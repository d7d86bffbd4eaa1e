// Package store is the local SQLite cache: recent thread history so the
// picker renders before the first backend refresh, and UI preferences such
// as the conversation panel split. Everything here is disposable state;
// the backend remains the source of truth.
package store
