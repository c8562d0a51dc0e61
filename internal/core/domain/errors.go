package domain

import "go.trai.ch/zerr"

var (
	// ErrMealNotFound is returned when a meal reference matches no meal.
	ErrMealNotFound = zerr.New("meal not found")

	// ErrAmbiguousMeal is returned when a meal id prefix matches more than one meal.
	ErrAmbiguousMeal = zerr.New("meal reference is ambiguous")

	// ErrInvalidMealName is returned when a meal name is empty after trimming.
	ErrInvalidMealName = zerr.New("invalid meal name")

	// ErrInvalidDishName is returned when a dish name is empty after trimming.
	ErrInvalidDishName = zerr.New("invalid dish name")

	// ErrInvalidDishIndex is returned when a dish index argument is not a number.
	ErrInvalidDishIndex = zerr.New("invalid dish index")

	// ErrUnknownCategory is returned when a category name is not selectable.
	ErrUnknownCategory = zerr.New("unknown category")

	// ErrInvalidGrocery is returned when a grocery argument has an empty name.
	ErrInvalidGrocery = zerr.New("invalid grocery, expected name or name=quantity")

	// ErrInvalidCheck is returned when a check-off argument is not dish:grocery.
	ErrInvalidCheck = zerr.New("invalid check, expected dish:grocery")

	// ErrDishIndexOutOfRange is returned when a dish index does not address a dish item.
	ErrDishIndexOutOfRange = zerr.New("dish index out of range")

	// ErrInvalidKey is returned when a storage key cannot be used by a backend.
	ErrInvalidKey = zerr.New("invalid storage key")

	// ErrStoreReadFailed is returned when a value cannot be read from the store.
	ErrStoreReadFailed = zerr.New("failed to read from store")

	// ErrStoreWriteFailed is returned when a value cannot be written to the store.
	ErrStoreWriteFailed = zerr.New("failed to write to store")

	// ErrStoreRemoveFailed is returned when a value cannot be removed from the store.
	ErrStoreRemoveFailed = zerr.New("failed to remove from store")

	// ErrStoreOpenFailed is returned when a store backend cannot be opened.
	ErrStoreOpenFailed = zerr.New("failed to open store")

	// ErrStoreLockFailed is returned when the store lock cannot be acquired.
	ErrStoreLockFailed = zerr.New("failed to acquire store lock")

	// ErrUnknownBackend is returned when the configured backend is not supported.
	ErrUnknownBackend = zerr.New("unknown storage backend")

	// ErrCollectionMarshalFailed is returned when the meal collection cannot be serialized.
	ErrCollectionMarshalFailed = zerr.New("failed to marshal meal collection")

	// ErrCollectionUnmarshalFailed is returned when stored bytes are not a meal collection.
	ErrCollectionUnmarshalFailed = zerr.New("failed to unmarshal meal collection")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidLogFormat is returned when the configured log format is unknown.
	ErrInvalidLogFormat = zerr.New("invalid log format, expected 'pretty' or 'json'")

	// ErrArchiveEncodeFailed is returned when meals cannot be exported.
	ErrArchiveEncodeFailed = zerr.New("failed to encode meal archive")

	// ErrArchiveDecodeFailed is returned when an archive cannot be imported.
	ErrArchiveDecodeFailed = zerr.New("failed to decode meal archive")

	// ErrNotOpen is returned when the application is used before its store is opened.
	ErrNotOpen = zerr.New("meal book is not open")

	// ErrResetNotConfirmed is returned when a reset is requested without confirmation.
	ErrResetNotConfirmed = zerr.New("reset requires confirmation")
)
