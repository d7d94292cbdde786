package domain

// FetchStatus - состояние автомата контроллера.
type FetchStatus string

const (
	StatusIdle    FetchStatus = "idle"
	StatusLoading FetchStatus = "loading"
	StatusSuccess FetchStatus = "success"
	StatusFailed  FetchStatus = "failed"
)

// FetchResult - результат последнего актуального запроса.
type FetchResult struct {
	Items   []Listing
	Total   int
	Loading bool
	Error   string
}

// Snapshot - неизменяемый срез состояния контроллера, который видит презентер.
type Snapshot struct {
	Version uint64
	State   QueryState
	Result  FetchResult
	Status  FetchStatus
	// URL - каноническая строка запроса для адресной строки
	URL string
}

func (s Snapshot) TotalPages() int {
	return TotalPages(s.Result.Total, s.State.PageSize)
}

func (s Snapshot) CanGoPrev() bool {
	return s.State.Page > 0
}

func (s Snapshot) CanGoNext() bool {
	return s.State.Page < s.TotalPages()-1
}
