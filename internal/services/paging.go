package services

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// clampPage applies the paging defaults and returns the row offset.
func clampPage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
