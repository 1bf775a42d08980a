package utils

type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can turn
// typed errors into their HTTP envelope. Handlers call this instead of
// repeating error plumbing per route.
func PanicIfNeeded(err error) {
	if err != nil {
		panic(err)
	}
}
