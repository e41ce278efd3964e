package output

// OnlineUserInfo содержит информацию об онлайн участнике группы
type OnlineUserInfo struct {
	ConnectionID string `json:"connectionId"`
	ID           string `json:"id"`
	Name         string `json:"name"`
}

// GroupCount - агрегат присутствия по группе для лобби
type GroupCount struct {
	GroupID string           `json:"groupId"`
	Count   int              `json:"count"`
	Users   []OnlineUserInfo `json:"users"`
}
