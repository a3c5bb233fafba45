package models

// ProjectSubmission заявка на додавання проєкту через контактну форму
type ProjectSubmission struct {
	BaseModel

	ProjectName  string `gorm:"size:200;not null" json:"projectName"`
	ProtocolName string `gorm:"size:200;not null" json:"protocolName"`
	Website      string `gorm:"size:500;not null" json:"website"`
	ContactEmail string `gorm:"size:200;not null" json:"contactEmail"`
	Description  string `gorm:"size:2000;not null" json:"description"`
	TVL          string `gorm:"size:100" json:"tvl,omitempty"`
	APY          string `gorm:"size:100" json:"apy,omitempty"`
}

func (ProjectSubmission) TableName() string {
	return "project_submissions"
}
