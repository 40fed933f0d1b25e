package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a render target fails its completeness check.
	ErrConfiguration = errors.New("render target configuration error")
	// ErrResourceExhaustion is returned when the backend cannot allocate an attachment.
	ErrResourceExhaustion = errors.New("graphics resource allocation failed")
	// ErrMissingAsset is returned when a texture or model cannot be loaded from disk.
	ErrMissingAsset = errors.New("missing asset")
	// ErrUniformNotFound is returned by backends when a shader does not expose a parameter.
	ErrUniformNotFound = errors.New("uniform not found")
	// ErrUniformType is returned when a value does not match the declared parameter type.
	ErrUniformType = errors.New("uniform type mismatch")
	// ErrShaderNotFound is returned when a shader name is not registered.
	ErrShaderNotFound = errors.New("shader not found")

	ErrTargetDestroyed  = errors.New("render target already destroyed")
	ErrTargetIncomplete = errors.New("render target is incomplete")
	ErrTargetNotFound   = errors.New("render target not found")
	ErrPassOrder        = errors.New("pass executed out of order")
	ErrFramePresented   = errors.New("frame already presented")
	ErrUnknown          = errors.New("unknown")
)

// ConfigurationError reports which target and attachment failed validation.
type ConfigurationError struct {
	Target     string
	Attachment string
	Status     string
}

func (e *ConfigurationError) Error() string {
	if e.Attachment == "" {
		return fmt.Sprintf("render target %q is incomplete: %s", e.Target, e.Status)
	}
	return fmt.Sprintf("render target %q is incomplete (attachment %s): %s", e.Target, e.Attachment, e.Status)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// MissingAssetError carries the path of the asset that failed to load.
type MissingAssetError struct {
	Path string
	Err  error
}

func (e *MissingAssetError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to load asset %s", e.Path)
	}
	return fmt.Sprintf("failed to load asset %s: %s", e.Path, e.Err)
}

func (e *MissingAssetError) Unwrap() []error {
	return []error{ErrMissingAsset, e.Err}
}
