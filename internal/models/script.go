package models

import (
	"time"

	"gorm.io/datatypes"
)

// Script is the row written by the generation workflow. Several columns are
// loosely typed on purpose: deployments store tags and titles as text[],
// jsonb or plain text, and scenes as a jsonb array, a staged object or a
// JSON encoded string. The script package turns a row into its strict shape.
type Script struct {
	ID                   string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SubmissionID         *string        `gorm:"type:uuid;index" json:"submission_id"`
	TitleSuggestions     datatypes.JSON `gorm:"type:jsonb" json:"title_suggestions"`
	Description          *string        `gorm:"type:text" json:"description"`
	Tags                 datatypes.JSON `gorm:"type:jsonb" json:"tags"`
	Scenes               datatypes.JSON `gorm:"type:jsonb" json:"scenes"`
	FullText             *string        `gorm:"type:text" json:"full_text"`
	LegacyFullText       *string        `gorm:"column:fulltext;type:text" json:"fulltext"`
	GenerationTimeMS     *int64         `gorm:"column:generation_time_ms" json:"generation_time_ms"`
	LegacyGenerationTime *int64         `gorm:"column:generation_time" json:"generation_time"`
	SourceLink           *string        `gorm:"type:text" json:"source_link"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Script) TableName() string {
	return "scripts"
}
