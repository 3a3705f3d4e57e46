package ledger

import "github.com/muhfadtz/TrackFinance/internal/models"

// Default categories offered by the client. Any short label is accepted.
var (
	IncomeCategories  = []string{"Salary", "Bonus", "Gifts", "Sales", "Other"}
	ExpenseCategories = []string{"Food", "Transport", "Bills", "Entertainment", "Shopping", "Health", "Education", "Other"}
)

// Categories returns the default categories for a transaction type.
func Categories(t models.TransactionType) []string {
	if t == models.Income {
		return IncomeCategories
	}
	return ExpenseCategories
}
