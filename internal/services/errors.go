package services

import "errors"

// ErrInvalidCredentials is returned when an authentication attempt fails
// because the presented secret does not match the stored hash.
var ErrInvalidCredentials = errors.New("invalid password")

// BusinessRuleError signals a domain-rule violation the client can correct,
// such as a duplicate email or an unresolvable entry owner.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func businessRule(message string) error {
	return &BusinessRuleError{Message: message}
}

// IsBusinessRule reports whether err is a BusinessRuleError.
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}
