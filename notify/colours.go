package notify

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	RedInverse = "\033[7;31m"

	ResetColor = "\033[0m" // Reset to default color
)
