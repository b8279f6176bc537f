package versions

import (
	"log"

	"capstone_platform/project_hub/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func initialSchema(txn *gorm.DB) error {
	log.Println("creating initial schema")

	err := txn.Migrator().AutoMigrate(
		&schema.University{}, &schema.User{}, &schema.Project{},
		&schema.TeamMembership{}, &schema.Task{}, &schema.TaskDependency{},
		&schema.Deliverable{}, &schema.Notification{},
	)
	if err != nil {
		return err
	}

	log.Println("initial schema created")

	return nil
}

func dropInitialSchema(txn *gorm.DB) error {
	return txn.Migrator().DropTable(
		&schema.Notification{}, &schema.Deliverable{}, &schema.TaskDependency{},
		&schema.Task{}, &schema.TeamMembership{}, &schema.Project{},
		&schema.User{}, &schema.University{},
	)
}

func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID:       "0_initial_schema",
			Migrate:  initialSchema,
			Rollback: dropInitialSchema,
		},
	}
}
