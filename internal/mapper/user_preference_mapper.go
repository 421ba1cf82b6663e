package mapper

import (
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type UserPreferenceMapper struct{}

func NewUserPreferenceMapper() *UserPreferenceMapper {
	return &UserPreferenceMapper{}
}

func (m *UserPreferenceMapper) ToEntity(p *model.UserPreference) *entity.UserPreference {
	if p == nil {
		return nil
	}

	return &entity.UserPreference{
		Id:             p.Id,
		UserId:         p.UserId,
		PreferredAgent: p.PreferredAgent,
		Topics:         jsonToStrings(p.Topics),
		UpdatedAt:      p.UpdatedAt,
	}
}

func (m *UserPreferenceMapper) ToModel(p *entity.UserPreference) *model.UserPreference {
	if p == nil {
		return nil
	}

	return &model.UserPreference{
		Id:             p.Id,
		UserId:         p.UserId,
		PreferredAgent: p.PreferredAgent,
		Topics:         stringsToJSON(p.Topics),
		UpdatedAt:      p.UpdatedAt,
	}
}
