package tournament

// Code is a machine-readable reason attached to every player-facing result.
type Code string

const (
	CodePersisted         Code = "Persisted"
	CodeNotActive         Code = "NotActive"
	CodeFull              Code = "Full"
	CodeAlreadyRegistered Code = "AlreadyRegistered"
	CodeNotRegistered     Code = "NotRegistered"
	CodeAlreadyExited     Code = "AlreadyExited"
	CodeProofRejected     Code = "ProofRejected"
	CodeUnauthorized      Code = "Unauthorized"
)

// Result is the outcome of a player-facing operation. Validation failures
// travel through here as values; they are never Go errors.
type Result struct {
	OK      bool   `json:"success"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func failure(code Code, message string) Result {
	return Result{OK: false, Code: code, Message: message}
}

func success(message string) Result {
	return Result{OK: true, Code: CodePersisted, Message: message}
}

// RegistrationCheck reports a wallet's standing in a named tournament.
type RegistrationCheck struct {
	Success    bool `json:"success"`
	Registered bool `json:"registered"`
	HasExited  bool `json:"hasExited"`
}
