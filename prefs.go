package parley

// PreferenceStore persists the user's model selection across sessions.
// It is injected into the Reconciler at construction so the core logic
// never touches environment-specific storage directly.
type PreferenceStore interface {
	// ModelPreference returns the persisted model selection, if any.
	ModelPreference() (string, bool)

	// SetModelPreference persists a new model selection.
	SetModelPreference(model string) error
}
