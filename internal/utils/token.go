package utils

// MaskSessionID masks a session id for logging and monitoring output.
// Shows the first 8 characters followed by an ellipsis, so listings and logs
// never contain a usable credential. Short or empty ids mask completely.
func MaskSessionID(id string) string {
	if len(id) <= 8 {
		if id == "" {
			return ""
		}
		return "..."
	}
	return id[:8] + "..."
}
