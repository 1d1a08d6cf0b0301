package project

// ConfigError reports an invalid or unreadable pyquick.toml. Message names the
// offending key; Hint tells the user how to fix it.
type ConfigError struct {
	Message string
	Hint    string
	Err     error
}

func (e *ConfigError) Error() string { return e.Message }

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(message, hint string) *ConfigError {
	return &ConfigError{Message: message, Hint: hint}
}
