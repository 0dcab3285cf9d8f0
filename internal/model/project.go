package model

import "time"

type ProjectStatus string

const (
	ProjectCrowdfunding ProjectStatus = "crowdfunding"
	ProjectFunded       ProjectStatus = "funded"
	ProjectFailed       ProjectStatus = "failed"
	ProjectAvailable    ProjectStatus = "available"
)

type Project struct {
	ID               uint64        `gorm:"primaryKey;autoIncrement"`
	Name             string        `gorm:"size:120;not null"`
	Status           ProjectStatus `gorm:"size:32;not null"`
	AcceptsPreorders bool          `gorm:"not null;default:false"`
	CreatedAt        time.Time     `gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}

// Crowdfunding reports whether the campaign is still running, which routes
// line items to batch allocation instead of stock.
func (p *Project) Crowdfunding() bool {
	return p.Status == ProjectCrowdfunding
}
