package models

import (
	"log"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Reconciliation{},
		&VarianceAlertRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
