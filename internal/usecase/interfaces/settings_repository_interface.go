package interfaces

import "context"

// ISettingsRepository exposes the merchant key/value settings store.
// Values are raw strings; typing happens in the policy config loader.
type ISettingsRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
}
