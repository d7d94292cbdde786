package domain

// User - текущий пользователь, как его возвращает /auth/me.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthOutcome - ответ auth-сервиса вместе с cookie, которые нужно
// передать браузеру без изменений.
type AuthOutcome struct {
	User       *User
	SetCookies []string
}
