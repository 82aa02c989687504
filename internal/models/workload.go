package models

// ReviewerWorkload описывает строку снимка нагрузки: данные ревьюера плюс
// вычисленные поля политики выбора.
type ReviewerWorkload struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
	// EffectiveStatus — хранимый статус либо StatusAntiRepeat,
	// если ревьюер завершил работу последним и новых назначений с тех пор не было.
	EffectiveStatus Status `json:"effective_status"`
	// PagesDiff — страницы ревьюера минус минимум страниц среди допущенных к выбору.
	PagesDiff int `json:"pages_diff"`
	// Current — число активных назначений ревьюера.
	Current int `json:"current"`
}

// GetScheduleNextParams описывает параметры запроса выдачи следующих ревьюеров.
type GetScheduleNextParams struct {
	Count    int      `form:"count" json:"count"`
	Excludes []string `form:"excludes" json:"excludes"`
	Urgent   bool     `form:"urgent" json:"urgent"`
	HideBusy bool     `form:"hide_busy" json:"hide_busy"`
}
