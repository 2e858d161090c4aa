package domain

type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Profile — проекция внешней сущности User для отображения в чате.
type Profile struct {
	ID          string  `db:"id"`
	DisplayName string  `db:"display_name"`
	AvatarURL   *string `db:"avatar_url"`
	Email       string  `db:"email"`
	Role        Role    `db:"role"`
}

// Association — разрешённая пара клиент/исполнитель.
// Эфемерная: вычисляется на каждую проверку, не кэшируется.
type Association struct {
	ClientID string
	WorkerID string
}
