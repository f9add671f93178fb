package project

import "errors"

var (
	// ErrInvalidProject is returned when an imported project file cannot be applied
	ErrInvalidProject = errors.New("invalid project file")
	// ErrInvalidAsset is returned when an edit would leave an asset in an invalid state
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrAssetNotFound is returned when an operation names an asset that does not exist
	ErrAssetNotFound = errors.New("asset not found")
	// ErrNoSelection is returned when an operation needs a selected asset and none is selected
	ErrNoSelection = errors.New("no asset selected")
	// ErrEmptyPrompt is returned when applying a prompt that is blank
	ErrEmptyPrompt = errors.New("compose a prompt first")
	// ErrNoContent is returned for assets whose media content is not loaded in this process
	ErrNoContent = errors.New("asset content not available")
	// ErrStaleProject is returned when the stored project was changed by another process
	// after this store last read it
	ErrStaleProject = errors.New("project changed in another process")
	// ErrResourceReleased is returned when a resource reference is unknown or already released
	ErrResourceReleased = errors.New("resource already released")
)
