package models

import "time"

type NewGroup struct {
	Name      string
	SourceIds []int32
}

type GroupConfiguration struct {
	Id        int32     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type GroupMember struct {
	ConfigurationId int32  `db:"configuration_id"`
	SourceId        int32  `db:"source_id"`
	Symbol          string `db:"symbol"`
}

type Group struct {
	GroupConfiguration
	Members []GroupMember
}

type GroupRequest struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

type GroupMemberPayload struct {
	SourceId int32  `json:"sourceId"`
	Symbol   string `json:"symbol"`
}

type GroupResponse struct {
	Id        int32                `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Members   []GroupMemberPayload `json:"members"`
}

func MapGroupToResponse(group *Group) GroupResponse {
	res := GroupResponse{
		Id:        group.Id,
		Name:      group.Name,
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
		Members:   make([]GroupMemberPayload, len(group.Members)),
	}

	for idx, member := range group.Members {
		res.Members[idx] = GroupMemberPayload{
			SourceId: member.SourceId,
			Symbol:   member.Symbol,
		}
	}

	return res
}
