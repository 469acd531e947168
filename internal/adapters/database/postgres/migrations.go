package postgres

import "github.com/openportal/subscribe-notifier/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.Subscription{},
	&entity.Activity{},
	&entity.Group{},
	&entity.Dataset{},
	&entity.Member{},
	&entity.ReportState{},
	&entity.NotifiedActivity{},
}
