package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/soddigital/financeiro_backend/config"
	"github.com/soddigital/financeiro_backend/models"
)

// Seeds a demo company with a minimal DRE-shaped chart of accounts and a
// year of entries, so a fresh environment has something to report on.
func main() {
	year := flag.Int("year", time.Now().Year(), "Year to seed entries into")
	companyName := flag.String("company", "ACME LTDA", "Company name to seed")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	company, err := models.CreateCompany(ctx, &models.NewCompany{Name: *companyName})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create company: %v\n", err)
		os.Exit(1)
	}

	project, err := models.CreateProject(ctx, &models.NewProject{
		Name:      "Operação",
		CompanyId: company.ID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create project: %v\n", err)
		os.Exit(1)
	}

	revenueSub, err := seedChartBranch(ctx, "Receita Operacional", "Receitas de Locação", "Aluguéis", "Aluguel Mensal")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed revenue accounts: %v\n", err)
		os.Exit(1)
	}
	expenseSub, err := seedChartBranch(ctx, "Despesa Operacional", "Despesas Administrativas", "Serviços", "Contabilidade")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed expense accounts: %v\n", err)
		os.Exit(1)
	}

	seeded := 0
	for month := 1; month <= 12; month++ {
		dueDate := time.Date(*year, time.Month(month), 10, 0, 0, 0, 0, time.UTC)

		if err := seedSettledEntry(ctx, company.ID, project.ID, revenueSub, "Aluguel galpão", decimal.NewFromInt(12500), dueDate); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed revenue entry: %v\n", err)
			os.Exit(1)
		}
		if err := seedSettledEntry(ctx, company.ID, project.ID, expenseSub, "Honorários contábeis", decimal.NewFromInt(3200), dueDate); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed expense entry: %v\n", err)
			os.Exit(1)
		}
		seeded += 2
	}

	fmt.Printf("seeded company %q (id %d) with %d settled entries for %d\n", company.Name, company.ID, seeded, *year)
}

func seedChartBranch(ctx context.Context, typeName, groupName, categoryName, subcategoryName string) (int, error) {
	accType, err := models.CreateAccountType(ctx, &models.NewAccountType{Name: typeName})
	if err != nil {
		return 0, err
	}
	group, err := models.CreateAccountGroup(ctx, &models.NewAccountGroup{Name: groupName, TypeId: accType.ID})
	if err != nil {
		return 0, err
	}
	category, err := models.CreateAccountCategory(ctx, &models.NewAccountCategory{Name: categoryName, GroupId: group.ID})
	if err != nil {
		return 0, err
	}
	sub, err := models.CreateAccountSubcategory(ctx, &models.NewAccountSubcategory{Name: subcategoryName, CategoryId: category.ID})
	if err != nil {
		return 0, err
	}
	return sub.ID, nil
}

func seedSettledEntry(ctx context.Context, companyId, projectId, subcategoryId int, description string, amount decimal.Decimal, dueDate time.Time) error {
	entry, err := models.CreateEntry(ctx, &models.NewEntry{
		CompanyId:     companyId,
		ProjectId:     projectId,
		SubcategoryId: subcategoryId,
		Description:   description,
		GrossAmount:   amount,
		DueDate:       dueDate,
	})
	if err != nil {
		return err
	}
	_, err = models.SettleEntry(ctx, entry.ID, dueDate)
	return err
}
