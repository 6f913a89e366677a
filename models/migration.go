package models

import (
	"log"

	"github.com/soddigital/financeiro_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Company{}, &Counterparty{}, &Project{},
		&AccountType{}, &AccountGroup{}, &AccountCategory{}, &AccountSubcategory{},
		&Entry{},
		&RentalContract{}, &ContractInstallment{},
		&SharePointDocument{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
