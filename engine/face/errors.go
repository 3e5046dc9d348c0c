package face

import "errors"

var (
	// ErrInitFailed is returned by Initialize when the detector cannot become ready or the surface cannot be built.
	ErrInitFailed = errors.New("face depth initialization failed")

	// ErrTargetNotFound reports a donor mesh or neck bone missing from the avatar. The feature is skipped.
	ErrTargetNotFound = errors.New("target not found")

	// ErrNotInitialized is returned by per-frame operations before a successful Initialize.
	ErrNotInitialized = errors.New("face depth helper not initialized")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid face depth config")

	// ErrEmptyDonor is returned when a skinned donor has no vertices or no skeleton to copy skinning from.
	ErrEmptyDonor = errors.New("donor mesh has no skinning data")

	// ErrClosed is returned by operations on a closed helper.
	ErrClosed = errors.New("face depth helper closed")
)
