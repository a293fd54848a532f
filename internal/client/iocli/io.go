package iocli

//go:generate moq -out io_mock.go . IO

// IO абстракция терминального ввода-вывода команд.
// Реализует io.Writer, чтобы табличный вывод мог писать напрямую.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	// ReadInput читает строку, введенную пользователем, без перевода строки
	ReadInput(prompt string) (string, error)
	// ReadPassword читает секрет без эха в терминал
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
