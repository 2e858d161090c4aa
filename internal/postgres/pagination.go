package postgres

// PageBounds нормализует page/limit и возвращает limit/offset для запроса.
func PageBounds(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
