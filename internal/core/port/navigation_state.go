package port

import "context"

// NavigationStatePort - внешнее хранилище навигационного состояния (аналог адресной строки).
// Read вызывается при монтировании страницы, Write - после каждой мутации.
type NavigationStatePort interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, rawQuery string) error
}

// NavigationHistoryPort - то же, но с историей переходов (кнопки "назад"/"вперед").
type NavigationHistoryPort interface {
	NavigationStatePort
	Back(ctx context.Context) (string, bool)
	Forward(ctx context.Context) (string, bool)
}
