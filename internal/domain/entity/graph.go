package entity

// Group is a container of datasets. Organizations are groups with
// IsOrganization set; they own their datasets through Dataset.OwnerOrg,
// while plain groups attach datasets through Member rows.
type Group struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Title          string `gorm:"not null"`
	State          string `gorm:"not null;default:active"`
	IsOrganization bool   `gorm:"not null;default:false"`
}

type Dataset struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Title    string `gorm:"not null"`
	OwnerOrg string `gorm:"index"`
	State    string `gorm:"not null;default:active"`
}

// Member links a dataset to a non-organization group.
type Member struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GroupID   string `gorm:"not null;index"`
	DatasetID string `gorm:"not null;index"`
	State     string `gorm:"not null;default:active"`
}
