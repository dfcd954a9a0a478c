package parley

import "fmt"

// ValidateSend checks universal constraints on an outbound user action:
// the body must be non-empty unless an attachment accompanies it.
func ValidateSend(body string, file *Upload) error {
	if body == "" && file == nil {
		return fmt.Errorf("empty message with no attachment: %w", ErrValidation)
	}
	if file != nil && file.Name == "" {
		return fmt.Errorf("attachment missing file name: %w", ErrValidation)
	}
	return nil
}

// ValidateMessage checks that a message's fields are valid for its kind.
func ValidateMessage(msg Message) error {
	switch m := msg.(type) {
	case TextMessage:
		return validateFrom(m.From, "text", RoleClient, RoleAssistant, RoleSupervisor)
	case Notice:
		if m.Body == "" {
			return fmt.Errorf("notice with empty body: %w", ErrValidation)
		}
		return nil
	case FileMessage:
		if err := validateFrom(m.From, "file", RoleClient, RoleAssistant); err != nil {
			return err
		}
		if m.File.FileName == "" {
			return fmt.Errorf("file message missing file name: %w", ErrValidation)
		}
		return nil
	case ErrorMessage:
		if m.Body == "" {
			return fmt.Errorf("error message with empty body: %w", ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("unknown message type %T: %w", msg, ErrValidation)
	}
}

func validateFrom(from Role, kind string, allowed ...Role) error {
	for _, r := range allowed {
		if from == r {
			return nil
		}
	}
	return fmt.Errorf("role %q not allowed in %s message: %w", from, kind, ErrValidation)
}
